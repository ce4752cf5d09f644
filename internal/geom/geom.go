package geom

// Point is a position in world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zoom limits. The viewport clamps instead of rejecting out-of-range values.
const (
	MinScale = 0.1
	MaxScale = 5.0

	// ZoomStep is the per-wheel-notch scale factor change.
	ZoomStep = 0.1
)

// Viewport maps between screen space and world space. X and Y are the
// screen-space translation of the world origin; Scale is the zoom factor.
type Viewport struct {
	X     float64
	Y     float64
	Scale float64
}

// NewViewport returns an identity viewport (no pan, 1:1 zoom).
func NewViewport() Viewport {
	return Viewport{Scale: 1}
}

// ScreenToWorld converts a screen position to world coordinates.
func (v Viewport) ScreenToWorld(sx, sy float64) Point {
	return Point{
		X: (sx - v.X) / v.Scale,
		Y: (sy - v.Y) / v.Scale,
	}
}

// WorldToScreen is the inverse of ScreenToWorld.
func (v Viewport) WorldToScreen(p Point) (sx, sy float64) {
	return p.X*v.Scale + v.X, p.Y*v.Scale + v.Y
}

// Pan translates the viewport by a screen-space delta. No scale change.
func (v *Viewport) Pan(dx, dy float64) {
	v.X += dx
	v.Y += dy
}

// ZoomAt applies one zoom step anchored at the given screen position: the
// world point under the pointer before the zoom stays under the pointer
// after it. zoomIn selects the direction.
func (v *Viewport) ZoomAt(px, py float64, zoomIn bool) {
	factor := 1 + ZoomStep
	if !zoomIn {
		factor = 1 - ZoomStep
	}
	newScale := clampScale(v.Scale * factor)
	if newScale == v.Scale {
		return
	}
	ratio := newScale / v.Scale
	v.X = px - (px-v.X)*ratio
	v.Y = py - (py-v.Y)*ratio
	v.Scale = newScale
}

// SetScale clamps and applies an absolute scale, anchored at the screen origin.
func (v *Viewport) SetScale(s float64) {
	v.Scale = clampScale(s)
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
