package board

// EraseAt computes the board content surviving an eraser pass with a
// contact circle of radius r (world units) centered at (cx, cy).
//
// Strokes are segmented: each point is classified inside or outside the
// circle, maximal runs of outside points survive as fragments keeping the
// original tool/color/width, and fragments shorter than two points are
// dropped as unrenderable. Shapes are removed whole: a rectangle when the
// center falls within its bounds expanded by r, a circle when the center
// distance is within its radius plus r.
//
// changed=false means the circle touched nothing; callers must then leave
// the board, the history and the network alone.
func EraseAt(sn Snapshot, cx, cy, r float64) (out Snapshot, changed bool) {
	for _, st := range sn.Lines {
		frags, touched := splitStroke(st, cx, cy, r)
		if touched {
			changed = true
		}
		out.Lines = append(out.Lines, frags...)
	}
	for _, sh := range sn.Shapes {
		if shapeHit(sh, cx, cy, r) {
			changed = true
			continue
		}
		out.Shapes = append(out.Shapes, sh)
	}
	return out, changed
}

// splitStroke walks the stroke's points in order, accumulating the current
// run of outside points and flushing it whenever the walk crosses into the
// circle. touched reports whether any point fell inside.
func splitStroke(st Stroke, cx, cy, r float64) (frags []Stroke, touched bool) {
	var run []float64

	flush := func() {
		// Fragments under 2 points are too short to render a line.
		if len(run) >= 4 {
			frags = append(frags, Stroke{
				Points:    run,
				Tool:      st.Tool,
				Color:     st.Color,
				LineWidth: st.LineWidth,
			})
		}
		run = nil
	}

	for i := 0; i+1 < len(st.Points); i += 2 {
		x, y := st.Points[i], st.Points[i+1]
		if hypot(x-cx, y-cy) <= r {
			touched = true
			flush()
			continue
		}
		run = append(run, x, y)
	}
	flush()

	if !touched {
		// Untouched: hand back the original as its own single fragment.
		return []Stroke{st.clone()}, false
	}
	return frags, true
}

// shapeHit reports whether the eraser circle removes the shape. Removal is
// binary; there is no partial shape erasure.
func shapeHit(sh Shape, cx, cy, r float64) bool {
	switch sh.Type {
	case ToolCircle:
		return hypot(sh.X-cx, sh.Y-cy) <= sh.Radius()+r
	case ToolRectangle:
		minX, maxX := ordered(sh.X, sh.X+sh.Width)
		minY, maxY := ordered(sh.Y, sh.Y+sh.Height)
		return cx >= minX-r && cx <= maxX+r && cy >= minY-r && cy <= maxY+r
	}
	return false
}

// ordered normalizes a signed extent into a low/high pair.
func ordered(a, b float64) (lo, hi float64) {
	if a > b {
		return b, a
	}
	return a, b
}
