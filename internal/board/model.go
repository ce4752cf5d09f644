package board

// Tool identifiers carried on strokes and shapes. They double as the wire
// discriminator for shape payloads.
const (
	ToolPen       = "pen"
	ToolRectangle = "rectangle"
	ToolCircle    = "circle"
	ToolEraser    = "eraser"
)

// Stroke is a committed freehand line. Points is a flat sequence of x,y
// pairs: always even in length, and a stroke needs at least two points
// (four numbers) to be persisted or rendered.
type Stroke struct {
	Points    []float64 `json:"points"`
	Tool      string    `json:"tool"`
	Color     string    `json:"color"`
	LineWidth float64   `json:"lineWidth"`
}

// PointCount returns the number of x,y pairs in the stroke.
func (s Stroke) PointCount() int { return len(s.Points) / 2 }

// Valid reports whether the stroke has enough points to draw a line.
func (s Stroke) Valid() bool { return len(s.Points) >= 4 }

func (s Stroke) clone() Stroke {
	c := s
	c.Points = append([]float64(nil), s.Points...)
	return c
}

// Shape is a committed rectangle or circle. X,Y anchor the drag origin;
// Width and Height are signed so the drag direction survives the wire.
// A circle's effective radius is sqrt(Width²+Height²).
type Shape struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tool   string  `json:"tool"`
	Color  string  `json:"color"`
}

// Radius returns the effective radius of a circle shape.
func (sh Shape) Radius() float64 {
	return hypot(sh.Width, sh.Height)
}

// Snapshot is the full board content at one instant: the unit of undo/redo
// and of full-state sync. Snapshots never alias live board collections.
type Snapshot struct {
	Lines  []Stroke `json:"lines"`
	Shapes []Shape  `json:"shapes"`
}

// Clone deep-copies the snapshot, including every stroke's point slice.
func (sn Snapshot) Clone() Snapshot {
	out := Snapshot{
		Lines:  make([]Stroke, 0, len(sn.Lines)),
		Shapes: append([]Shape(nil), sn.Shapes...),
	}
	for _, st := range sn.Lines {
		out.Lines = append(out.Lines, st.clone())
	}
	return out
}

// Empty reports whether the snapshot holds nothing.
func (sn Snapshot) Empty() bool {
	return len(sn.Lines) == 0 && len(sn.Shapes) == 0
}
