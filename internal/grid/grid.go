package grid

import (
	"errors"
	"fmt"
	"math"

	"choirgrid/internal/frame"
)

// ErrNoTracks is returned when a layout is requested for zero tracks.
var ErrNoTracks = errors.New("grid: no tracks to place")

// Layout is the rows x cols arrangement of equally sized cells on the canvas.
type Layout struct {
	Rows      int
	Cols      int
	Border    int
	CanvasW   int
	CanvasH   int
	CellW     float64
	CellH     float64
	Landscape bool
}

// Vote decides the cell orientation from the tracks' first frames. Frames
// wider than tall count as landscape, the rest as portrait; nil frames do not
// vote. Ties go to landscape.
func Vote(frames []*frame.Frame) bool {
	landscape, portrait := 0, 0
	for _, f := range frames {
		if f.Empty() {
			continue
		}
		if f.Landscape() {
			landscape++
		} else {
			portrait++
		}
	}
	return portrait <= landscape
}

// Plan returns the smallest grid holding count cells. Starting from 1x1 it
// grows one row or column at a time: landscape cells add columns while
// cols <= rows, portrait cells add columns while cols < 4*rows, and rows grow
// otherwise.
func Plan(count int, landscape bool, canvasW, canvasH, border int) (Layout, error) {
	if count <= 0 {
		return Layout{}, ErrNoTracks
	}
	rows, cols := 1, 1
	for rows*cols < count {
		if landscape {
			if cols <= rows {
				cols++
			} else {
				rows++
			}
		} else {
			if cols < rows*4 {
				cols++
			} else {
				rows++
			}
		}
	}
	cellW := float64(canvasW-border*(cols+1)) / float64(cols)
	cellH := float64(canvasH-border*(rows+1)) / float64(rows)
	if cellW < 1 || cellH < 1 {
		return Layout{}, fmt.Errorf("grid: %dx%d cells do not fit a %dx%d canvas with %dpx borders", rows, cols, canvasW, canvasH, border)
	}
	return Layout{
		Rows:      rows,
		Cols:      cols,
		Border:    border,
		CanvasW:   canvasW,
		CanvasH:   canvasH,
		CellW:     cellW,
		CellH:     cellH,
		Landscape: landscape,
	}, nil
}

// Capacity is the number of cells in the layout.
func (l Layout) Capacity() int {
	return l.Rows * l.Cols
}

// CellSize returns the rounded pixel size every scaled frame is cropped to.
func (l Layout) CellSize() (width, height int) {
	return int(math.Round(l.CellW)), int(math.Round(l.CellH))
}

// CellOrigin returns the top-left pixel of cell slot, filled row by row.
func (l Layout) CellOrigin(slot int) (x, y int) {
	row, col := slot/l.Cols, slot%l.Cols
	x = int(math.Round(float64(l.Border) + float64(col)*(l.CellW+float64(l.Border))))
	y = int(math.Round(float64(l.Border) + float64(row)*(l.CellH+float64(l.Border))))
	return x, y
}

// Placement returns where a frame of width x height lands in slot. Frames
// smaller than the cell are centered within it.
func (l Layout) Placement(slot, width, height int) (x, y int) {
	x, y = l.CellOrigin(slot)
	if float64(width) < l.CellW {
		x += int((l.CellW - float64(width)) * 0.5)
	}
	if float64(height) < l.CellH {
		y += int((l.CellH - float64(height)) * 0.5)
	}
	return x, y
}

// String renders the layout as "rows x cols".
func (l Layout) String() string {
	return fmt.Sprintf("%dx%d", l.Rows, l.Cols)
}
