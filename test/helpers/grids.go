package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
)

// ParseGrid builds a grid from whitespace-separated rows.
//
//	"."  unburned
//	"#"  burned, no date
//	"N"  burned on day N
func ParseGrid(rows ...string) (*raster.Grid, error) {
	pixels := make([][]raster.Pixel, len(rows))
	for r, line := range rows {
		for _, cell := range strings.Fields(line) {
			px, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r, err)
			}
			pixels[r] = append(pixels[r], px)
		}
	}
	return raster.GridFromRows(pixels)
}

// MustParseGrid is ParseGrid for fixtures known to be valid
func MustParseGrid(rows ...string) *raster.Grid {
	g, err := ParseGrid(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

func parseCell(cell string) (raster.Pixel, error) {
	switch cell {
	case ".":
		return raster.Unburned(), nil
	case "#":
		return raster.BurnedUndated(), nil
	}
	day, err := strconv.Atoi(cell)
	if err != nil {
		return raster.Pixel{}, fmt.Errorf("invalid cell %q", cell)
	}
	return raster.BurnedOn(day), nil
}

// ParseLabels parses whitespace-separated label rows
func ParseLabels(rows ...string) ([][]uint32, error) {
	out := make([][]uint32, len(rows))
	for r, line := range rows {
		for _, cell := range strings.Fields(line) {
			v, err := strconv.ParseUint(cell, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid label %q", r, cell)
			}
			out[r] = append(out[r], uint32(v))
		}
	}
	return out, nil
}
