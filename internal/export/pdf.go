// Package export renders a board snapshot to a one-page PDF.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"SketchRoom/internal/board"
)

const (
	pageMargin = 10.0 // mm
	a4Width    = 210.0
	a4Height   = 297.0
)

var ErrEmptyBoard = errors.New("export: nothing to export")

// PDF writes the snapshot to path as an A4 page.
func PDF(path string, sn board.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := Write(f, sn); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders the snapshot as an A4 page. The drawing is scaled uniformly
// so its world bounding box fills the printable area.
func Write(w io.Writer, sn board.Snapshot) error {
	if sn.Empty() {
		return ErrEmptyBoard
	}

	minX, minY, maxX, maxY := bounds(sn)
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := math.Min((a4Width-2*pageMargin)/spanX, (a4Height-2*pageMargin)/spanY)
	tx := func(x float64) float64 { return pageMargin + (x-minX)*scale }
	ty := func(y float64) float64 { return pageMargin + (y-minY)*scale }

	p := gofpdf.New("P", "mm", "A4", "")
	p.AddPage()

	for _, st := range sn.Lines {
		r, g, b := hexColor(st.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(0.2, st.LineWidth*scale))
		for i := 3; i < len(st.Points); i += 2 {
			p.Line(
				tx(st.Points[i-3]), ty(st.Points[i-2]),
				tx(st.Points[i-1]), ty(st.Points[i]),
			)
		}
	}

	for _, sh := range sn.Shapes {
		r, g, b := hexColor(sh.Color)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(0.5)
		switch sh.Type {
		case board.ToolCircle:
			p.Circle(tx(sh.X), ty(sh.Y), sh.Radius()*scale, "D")
		default:
			x, y, w, h := normalized(sh)
			p.Rect(tx(x), ty(y), w*scale, h*scale, "D")
		}
	}

	return p.Output(w)
}

// bounds returns the world-space bounding box of everything on the board.
func bounds(sn board.Snapshot) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, st := range sn.Lines {
		for i := 1; i < len(st.Points); i += 2 {
			grow(st.Points[i-1], st.Points[i])
		}
	}
	for _, sh := range sn.Shapes {
		if sh.Type == board.ToolCircle {
			r := sh.Radius()
			grow(sh.X-r, sh.Y-r)
			grow(sh.X+r, sh.Y+r)
			continue
		}
		x, y, w, h := normalized(sh)
		grow(x, y)
		grow(x+w, y+h)
	}
	return minX, minY, maxX, maxY
}

func normalized(sh board.Shape) (x, y, w, h float64) {
	x, y, w, h = sh.X, sh.Y, sh.Width, sh.Height
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return x, y, w, h
}

// hexColor parses "#rrggbb"; anything else draws black.
func hexColor(s string) (r, g, b int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
