package ui

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"SketchRoom/internal/board"
	"SketchRoom/internal/geom"
	"SketchRoom/internal/sync"
)

// ToolPan is UI-only: it moves the viewport and never touches the board.
const ToolPan = "pan"

const (
	// eraserScreenRadius is the eraser hit radius in screen pixels; the
	// world-space radius shrinks as the user zooms in.
	eraserScreenRadius = 24.0

	gridPitch = 50.0 // world units between grid lines
)

// BoardWidget is the drawing surface. It renders whatever the sync client's
// current frame says and funnels every pointer gesture back into the client;
// it keeps no board state of its own beyond the viewport and tool selection.
type BoardWidget struct {
	widget.BaseWidget

	client *sync.Client
	view   geom.Viewport

	tool      string
	color     string
	lineWidth float64

	gesturing bool
	panning   bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(client *sync.Client) *BoardWidget {
	b := &BoardWidget{
		client:    client,
		view:      geom.NewViewport(),
		tool:      board.ToolPen,
		color:     "#000000",
		lineWidth: 3.0,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) SetTool(tool string)    { b.tool = tool }
func (b *BoardWidget) SetColor(hex string)    { b.color = hex }
func (b *BoardWidget) SetLineWidth(w float64) { b.lineWidth = w }

func (b *BoardWidget) ResetView() {
	b.view = geom.NewViewport()
	b.Refresh()
}

func (b *BoardWidget) worldAt(pos fyne.Position) geom.Point {
	return b.view.ScreenToWorld(float64(pos.X), float64(pos.Y))
}

func (b *BoardWidget) eraserRadius() float64 {
	return eraserScreenRadius / b.view.Scale
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p := b.worldAt(e.Position)
	switch b.tool {
	case ToolPan:
		b.panning = true
	case board.ToolEraser:
		b.gesturing = true
		b.client.EraseAt(p, b.eraserRadius())
	case board.ToolRectangle, board.ToolCircle:
		b.gesturing = true
		b.client.BeginShape(b.tool, b.color, p)
	default:
		b.gesturing = true
		b.client.BeginStroke(board.ToolPen, b.color, b.lineWidth, p)
	}
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.finishGesture()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.panning {
		b.view.Pan(float64(e.Dragged.DX), float64(e.Dragged.DY))
		b.Refresh()
		return
	}
	if !b.gesturing {
		return
	}
	p := b.worldAt(e.Position)
	switch b.tool {
	case board.ToolEraser:
		b.client.EraseAt(p, b.eraserRadius())
	case board.ToolRectangle, board.ToolCircle:
		b.client.UpdateShape(p)
	default:
		b.client.AppendPoint(p)
	}
	b.client.MoveCursor(p)
	b.Refresh()
}

func (b *BoardWidget) DragEnd() {
	b.finishGesture()
}

// finishGesture commits whatever is in flight. Committing twice is harmless:
// the client ignores a commit with no active gesture.
func (b *BoardWidget) finishGesture() {
	if b.gesturing {
		b.client.CommitGesture()
		b.gesturing = false
	}
	b.panning = false
	b.Refresh()
}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.client.MoveCursor(b.worldAt(e.Position))
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut()                   {}

// Scrolled zooms, anchored at the pointer.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.view.ZoomAt(float64(e.Position.X), float64(e.Position.Y), e.Scrolled.DY > 0)
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 245, G: 246, B: 248, A: 255})
	return &boardRenderer{board: b, background: bg}
}

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	size       fyne.Size
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.size = size
	r.background.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size { return fyne.NewSize(480, 360) }

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	frame := r.board.client.Frame()
	view := r.board.view

	objects := []fyne.CanvasObject{r.background}
	objects = append(objects, gridLines(view, r.size)...)

	for i := range frame.Lines {
		objects = append(objects, strokeSegments(view, frame.Lines[i])...)
	}
	for i := range frame.Shapes {
		objects = append(objects, shapeOutline(view, frame.Shapes[i]))
	}
	if frame.ActiveLine != nil {
		objects = append(objects, strokeSegments(view, *frame.ActiveLine)...)
	}
	if frame.ActiveShape != nil {
		objects = append(objects, shapeOutline(view, *frame.ActiveShape))
	}

	self := r.board.client.Self().ID
	for _, u := range frame.Users {
		if u.ID == self || u.Cursor == nil || !u.Active {
			continue
		}
		objects = append(objects, cursorMarker(view, u.Name, u.Color, *u.Cursor)...)
	}
	return objects
}

func (r *boardRenderer) Refresh() { canvas.Refresh(r.board) }
func (r *boardRenderer) Destroy() {}

// gridLines draws the world-aligned grid covering the visible screen area.
func gridLines(view geom.Viewport, size fyne.Size) []fyne.CanvasObject {
	if size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	gridColor := color.NRGBA{R: 220, G: 220, B: 220, A: 160}
	topLeft := view.ScreenToWorld(0, 0)
	bottomRight := view.ScreenToWorld(float64(size.Width), float64(size.Height))

	var lines []fyne.CanvasObject
	for wx := math.Floor(topLeft.X/gridPitch) * gridPitch; wx <= bottomRight.X; wx += gridPitch {
		sx, _ := view.WorldToScreen(geom.Point{X: wx})
		l := canvas.NewLine(gridColor)
		l.StrokeWidth = 0.5
		l.Position1 = fyne.NewPos(float32(sx), 0)
		l.Position2 = fyne.NewPos(float32(sx), size.Height)
		lines = append(lines, l)
	}
	for wy := math.Floor(topLeft.Y/gridPitch) * gridPitch; wy <= bottomRight.Y; wy += gridPitch {
		_, sy := view.WorldToScreen(geom.Point{Y: wy})
		l := canvas.NewLine(gridColor)
		l.StrokeWidth = 0.5
		l.Position1 = fyne.NewPos(0, float32(sy))
		l.Position2 = fyne.NewPos(size.Width, float32(sy))
		lines = append(lines, l)
	}
	return lines
}

func strokeSegments(view geom.Viewport, st board.Stroke) []fyne.CanvasObject {
	c := parseColor(st.Color)
	width := float32(st.LineWidth * view.Scale)
	if width < 0.5 {
		width = 0.5
	}
	var segments []fyne.CanvasObject
	for i := 3; i < len(st.Points); i += 2 {
		x1, y1 := view.WorldToScreen(geom.Point{X: st.Points[i-3], Y: st.Points[i-2]})
		x2, y2 := view.WorldToScreen(geom.Point{X: st.Points[i-1], Y: st.Points[i]})
		seg := canvas.NewLine(c)
		seg.StrokeWidth = width
		seg.Position1 = fyne.NewPos(float32(x1), float32(y1))
		seg.Position2 = fyne.NewPos(float32(x2), float32(y2))
		segments = append(segments, seg)
	}
	return segments
}

func shapeOutline(view geom.Viewport, sh board.Shape) fyne.CanvasObject {
	c := parseColor(sh.Color)
	if sh.Type == board.ToolCircle {
		r := sh.Radius() * view.Scale
		cx, cy := view.WorldToScreen(geom.Point{X: sh.X, Y: sh.Y})
		circle := canvas.NewCircle(color.Transparent)
		circle.StrokeColor = c
		circle.StrokeWidth = 2
		circle.Position1 = fyne.NewPos(float32(cx-r), float32(cy-r))
		circle.Position2 = fyne.NewPos(float32(cx+r), float32(cy+r))
		return circle
	}

	x, y, w, h := sh.X, sh.Y, sh.Width, sh.Height
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	sx, sy := view.WorldToScreen(geom.Point{X: x, Y: y})
	rect := canvas.NewRectangle(color.Transparent)
	rect.StrokeColor = c
	rect.StrokeWidth = 2
	rect.Move(fyne.NewPos(float32(sx), float32(sy)))
	rect.Resize(fyne.NewSize(float32(w*view.Scale), float32(h*view.Scale)))
	return rect
}

// cursorMarker renders a remote user's pointer: a dot in their color with
// their display name beside it.
func cursorMarker(view geom.Viewport, name, hex string, p geom.Point) []fyne.CanvasObject {
	c := parseColor(hex)
	sx, sy := view.WorldToScreen(p)

	dot := canvas.NewCircle(c)
	dot.Position1 = fyne.NewPos(float32(sx)-4, float32(sy)-4)
	dot.Position2 = fyne.NewPos(float32(sx)+4, float32(sy)+4)

	label := canvas.NewText(name, c)
	label.TextSize = 11
	label.Move(fyne.NewPos(float32(sx)+8, float32(sy)-6))

	return []fyne.CanvasObject{dot, label}
}

// parseColor reads "#rrggbb"; anything unparsable renders black.
func parseColor(hex string) color.Color {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
