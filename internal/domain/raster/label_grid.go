package raster

import "fmt"

// LabelGrid holds one event label per pixel. 0 means no event; events are
// numbered 1..Events() in row-major order of their first pixel.
type LabelGrid struct {
	rows   int
	cols   int
	labels []uint32
	events int
}

func newLabelGrid(rows, cols int) *LabelGrid {
	return &LabelGrid{rows: rows, cols: cols, labels: make([]uint32, rows*cols)}
}

// NewLabelGrid rebuilds a label grid from stored labels, e.g. a label raster
// read back from a sink. Events is taken as the highest label present.
func NewLabelGrid(rows, cols int, labels []uint32) (*LabelGrid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(labels) != rows*cols {
		return nil, fmt.Errorf("%w: got %d labels for %dx%d", ErrDimensionMismatch, len(labels), rows, cols)
	}

	lg := newLabelGrid(rows, cols)
	copy(lg.labels, labels)
	for _, l := range labels {
		if int(l) > lg.events {
			lg.events = int(l)
		}
	}
	return lg, nil
}

func (l *LabelGrid) Rows() int   { return l.rows }
func (l *LabelGrid) Cols() int   { return l.cols }
func (l *LabelGrid) Events() int { return l.events }

// At returns the label at (row, col)
func (l *LabelGrid) At(row, col int) uint32 {
	return l.labels[row*l.cols+col]
}

// Labels returns a row-major copy of the labels
func (l *LabelGrid) Labels() []uint32 {
	cp := make([]uint32, len(l.labels))
	copy(cp, l.labels)
	return cp
}

// Rows2D returns the labels as a 2D slice, convenient for assertions and printing
func (l *LabelGrid) Rows2D() [][]uint32 {
	out := make([][]uint32, l.rows)
	for r := range out {
		out[r] = make([]uint32, l.cols)
		copy(out[r], l.labels[r*l.cols:(r+1)*l.cols])
	}
	return out
}

// Equal reports whether both grids have the same dimensions and labels
func (l *LabelGrid) Equal(other *LabelGrid) bool {
	if other == nil || l.rows != other.rows || l.cols != other.cols || l.events != other.events {
		return false
	}
	for i := range l.labels {
		if l.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}
