package raster

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// Adjacency selects which neighbouring pixels count as spatially adjacent.
type Adjacency int

const (
	// Adjacency4 connects N, S, E and W neighbours
	Adjacency4 Adjacency = 4
	// Adjacency8 also connects diagonal neighbours
	Adjacency8 Adjacency = 8
)

// Neighbour offsets as {dRow, dCol}, precomputed so traversals do not branch on mode.
var (
	offsets4 = [][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
	offsets8 = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	// already-scanned neighbours under row-major order, used by the union-find sweep
	backward4 = [][2]int{{-1, 0}, {0, -1}}
	backward8 = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}}
)

// ParseAdjacency accepts "4" or "8"
func ParseAdjacency(s string) (Adjacency, error) {
	switch strings.TrimSpace(s) {
	case "4":
		return Adjacency4, nil
	case "8":
		return Adjacency8, nil
	default:
		return 0, shared.NewConfigError("adjacency", fmt.Sprintf("unknown mode %q (expected 4 or 8)", s))
	}
}

func (a Adjacency) Valid() bool {
	return a == Adjacency4 || a == Adjacency8
}

// Offsets returns every neighbour offset for the mode
func (a Adjacency) Offsets() [][2]int {
	if a == Adjacency4 {
		return offsets4
	}
	return offsets8
}

func (a Adjacency) backwardOffsets() [][2]int {
	if a == Adjacency4 {
		return backward4
	}
	return backward8
}

func (a Adjacency) String() string {
	return fmt.Sprintf("%d-connectivity", int(a))
}
