package ui

import (
	"errors"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"SketchRoom/internal/board"
	"SketchRoom/internal/export"
	"SketchRoom/internal/sync"
)

// palette is the set of stroke colors offered in the toolbar.
var palette = []string{"#000000", "#e6194b", "#3cb44b", "#4363d8", "#ffe119", "#911eb4", "#f58231"}

// colorSwatch is a tappable square of one palette color.
type colorSwatch struct {
	widget.BaseWidget
	hex      string
	OnTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(parseColor(s.hex))
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.hex)
	}
}

// NewToolbar builds the tool strip: tool buttons, the palette, the width
// slider, and the history/export actions.
func NewToolbar(b *BoardWidget, client *sync.Client, win fyne.Window) fyne.CanvasObject {
	tools := container.NewHBox(
		widget.NewButton("Pen", func() { b.SetTool(board.ToolPen) }),
		widget.NewButton("Rect", func() { b.SetTool(board.ToolRectangle) }),
		widget.NewButton("Circle", func() { b.SetTool(board.ToolCircle) }),
		widget.NewButton("Eraser", func() { b.SetTool(board.ToolEraser) }),
		widget.NewButton("Pan", func() { b.SetTool(ToolPan) }),
	)

	colorBox := container.NewHBox()
	for _, hex := range palette {
		colorBox.Add(newColorSwatch(hex, b.SetColor))
	}

	widthSlider := widget.NewSlider(1.0, 20.0)
	widthSlider.SetValue(3.0)
	widthSlider.OnChanged = b.SetLineWidth
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), widthSlider)

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), client.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), client.Redo),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			dialog.ShowConfirm("Clear board", "Clear the board for everyone in the room?", func(ok bool) {
				if ok {
					client.ClearBoard()
				}
			}, win)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), b.ResetView),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { exportPDF(client, win) }),
		widget.NewToolbarAction(theme.LogoutIcon(), func() {
			dialog.ShowConfirm("Leave room", "Leave the room and discard your identity?", func(ok bool) {
				if ok {
					client.Leave()
					win.Close()
				}
			}, win)
		}),
	)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tools,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		layout.NewSpacer(),
		actions,
	)
}

func exportPDF(client *sync.Client, win fyne.Window) {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()

		frame := client.Frame()
		sn := board.Snapshot{Lines: frame.Lines, Shapes: frame.Shapes}
		if err := export.Write(writer, sn); err != nil {
			if errors.Is(err, export.ErrEmptyBoard) {
				dialog.ShowInformation("Export", "The board is empty.", win)
				return
			}
			dialog.ShowError(err, win)
		}
	}, win)
}
