package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGrid is returned when a grid has no rows or no columns.
	ErrEmptyGrid = errors.New("grid has no rows or columns")
	// ErrNonRectangular is returned when rows have differing lengths.
	ErrNonRectangular = errors.New("grid rows have differing lengths")
	// ErrDimensionMismatch is returned when the pixel count does not match rows×cols.
	ErrDimensionMismatch = errors.New("pixel count does not match grid dimensions")
)

// Pixel is one cell of a burned-area grid.
// HasDate=false means the pixel is temporally unconstrained.
type Pixel struct {
	Burned  bool
	Date    int
	HasDate bool
}

// Unburned returns a pixel with no detected fire
func Unburned() Pixel { return Pixel{} }

// BurnedUndated returns a burned pixel without a detection date
func BurnedUndated() Pixel { return Pixel{Burned: true} }

// BurnedOn returns a burned pixel detected on the given date
func BurnedOn(date int) Pixel { return Pixel{Burned: true, Date: date, HasDate: true} }

// Grid is an immutable rows×cols array of pixels stored in row-major order.
type Grid struct {
	rows   int
	cols   int
	pixels []Pixel
}

// NewGrid builds a grid from a row-major pixel slice. The slice is copied.
func NewGrid(rows, cols int, pixels []Pixel) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(pixels) != rows*cols {
		return nil, fmt.Errorf("%w: got %d pixels for %dx%d", ErrDimensionMismatch, len(pixels), rows, cols)
	}

	cp := make([]Pixel, len(pixels))
	copy(cp, pixels)
	return &Grid{rows: rows, cols: cols, pixels: cp}, nil
}

// GridFromRows builds a grid from a rectangular 2D slice.
func GridFromRows(rows [][]Pixel) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}

	cols := len(rows[0])
	pixels := make([]Pixel, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, ErrNonRectangular
		}
		pixels = append(pixels, row...)
	}

	return &Grid{rows: len(rows), cols: cols, pixels: pixels}, nil
}

// GridFromBurned builds an undated grid from a burn mask.
func GridFromBurned(mask [][]bool) (*Grid, error) {
	rows := make([][]Pixel, len(mask))
	for r, line := range mask {
		rows[r] = make([]Pixel, len(line))
		for c, burned := range line {
			if burned {
				rows[r][c] = BurnedUndated()
			}
		}
	}
	return GridFromRows(rows)
}

// GridFromValues builds a dated grid from raw raster values.
// A value inside the burn window marks the pixel burned on that date.
func GridFromValues(rows, cols int, values []int, window BurnWindow) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: got %d values for %dx%d", ErrDimensionMismatch, len(values), rows, cols)
	}

	pixels := make([]Pixel, len(values))
	for i, v := range values {
		if window.Contains(v) {
			pixels[i] = BurnedOn(v)
		}
	}

	return &Grid{rows: rows, cols: cols, pixels: pixels}, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Len returns rows×cols
func (g *Grid) Len() int { return len(g.pixels) }

// At returns the pixel at (row, col). It panics when out of bounds.
func (g *Grid) At(row, col int) Pixel {
	return g.pixels[g.Index(row, col)]
}

// InBounds reports whether (row, col) lies within the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Index maps (row, col) to its row-major index.
func (g *Grid) Index(row, col int) int {
	return row*g.cols + col
}

// Coordinate maps a row-major index back to (row, col).
func (g *Grid) Coordinate(idx int) (row, col int) {
	return idx / g.cols, idx % g.cols
}

// BurnedCount returns the number of burned pixels.
func (g *Grid) BurnedCount() int {
	n := 0
	for _, p := range g.pixels {
		if p.Burned {
			n++
		}
	}
	return n
}
