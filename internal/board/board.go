package board

import "math"

func hypot(w, h float64) float64 { return math.Sqrt(w*w + h*h) }

// Board owns the live stroke and shape collections plus the in-progress
// gesture. The active stroke/shape live in their own slots and only move
// into the committed collections on Commit, so nothing ever mutates the
// tail of a committed slice.
//
// Board does no locking: the sync client serializes every mutation on its
// event loop.
type Board struct {
	lines  []Stroke
	shapes []Shape

	active      *Stroke
	activeShape *Shape
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// BeginStroke starts a pen gesture seeded with a single point.
func (b *Board) BeginStroke(tool, color string, width float64, x, y float64) {
	b.active = &Stroke{
		Points:    []float64{x, y},
		Tool:      tool,
		Color:     color,
		LineWidth: width,
	}
	b.activeShape = nil
}

// AppendPoint extends the active stroke. No-op without an active stroke.
func (b *Board) AppendPoint(x, y float64) {
	if b.active == nil {
		return
	}
	b.active.Points = append(b.active.Points, x, y)
}

// BeginShape starts a rectangle or circle gesture anchored at (x, y).
func (b *Board) BeginShape(tool, color string, x, y float64) {
	b.activeShape = &Shape{
		Type:  tool,
		Tool:  tool,
		Color: color,
		X:     x,
		Y:     y,
	}
	b.active = nil
}

// UpdateShape rewrites the active shape's extent from the current pointer
// position. Width/Height stay signed so the drag direction is kept.
func (b *Board) UpdateShape(x, y float64) {
	if b.activeShape == nil {
		return
	}
	b.activeShape.Width = x - b.activeShape.X
	b.activeShape.Height = y - b.activeShape.Y
}

// Commit finalizes the in-progress gesture. A stroke with fewer than two
// points is discarded; shapes commit unconditionally, even with zero
// extent. Returns the committed stroke or shape, or ok=false when nothing
// was committed.
func (b *Board) Commit() (stroke *Stroke, shape *Shape, ok bool) {
	switch {
	case b.active != nil:
		st := *b.active
		b.active = nil
		if !st.Valid() {
			return nil, nil, false
		}
		b.lines = append(b.lines, st)
		return &st, nil, true
	case b.activeShape != nil:
		sh := *b.activeShape
		b.activeShape = nil
		b.shapes = append(b.shapes, sh)
		return nil, &sh, true
	}
	return nil, nil, false
}

// CancelGesture drops the in-progress stroke/shape without committing.
func (b *Board) CancelGesture() {
	b.active = nil
	b.activeShape = nil
}

// AddStroke appends an already-committed stroke (inbound draw event).
func (b *Board) AddStroke(st Stroke) {
	if !st.Valid() {
		return
	}
	b.lines = append(b.lines, st.clone())
}

// AddShape appends an already-committed shape (inbound draw event).
func (b *Board) AddShape(sh Shape) {
	b.shapes = append(b.shapes, sh)
}

// ReplaceAll swaps in a full snapshot, discarding the previous collections.
func (b *Board) ReplaceAll(sn Snapshot) {
	c := sn.Clone()
	b.lines = c.Lines
	b.shapes = c.Shapes
}

// Clear empties the board and drops any in-progress gesture.
func (b *Board) Clear() {
	b.lines = nil
	b.shapes = nil
	b.active = nil
	b.activeShape = nil
}

// Snapshot deep-copies the committed collections.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{Lines: b.lines, Shapes: b.shapes}.Clone()
}

// Active returns the in-progress stroke and shape for rendering. Either or
// both may be nil.
func (b *Board) Active() (*Stroke, *Shape) {
	return b.active, b.activeShape
}

// Counts returns the number of committed strokes and shapes.
func (b *Board) Counts() (lines, shapes int) {
	return len(b.lines), len(b.shapes)
}
