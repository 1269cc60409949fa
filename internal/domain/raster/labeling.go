package raster

// Label partitions the burned pixels of grid into fire events.
//
// Every maximal set of pixels linked by a chain of Connected pairs receives
// one label. Labels are numbered from 1 in row-major order of each event's
// first pixel, so the result is identical for every strategy and every run.
// Unburned pixels keep label 0. Time and auxiliary space are O(rows×cols).
//
// p is expected to have passed Validate; an unknown strategy falls back to
// flood fill.
func Label(grid *Grid, p Params) *LabelGrid {
	if p.strategy() == StrategyUnionFind && !(p.Temporal && p.mode() == TemporalSeed) {
		return unionFindLabel(grid, p)
	}
	return floodFillLabel(grid, p)
}

// floodFillLabel scans seeds in row-major order and grows each event breadth-first.
func floodFillLabel(g *Grid, p Params) *LabelGrid {
	out := newLabelGrid(g.rows, g.cols)
	offsets := p.Adjacency.Offsets()
	seedMode := p.Temporal && p.mode() == TemporalSeed

	queue := make([]int, 0, 64)
	var next uint32

	for idx, px := range g.pixels {
		if !px.Burned || out.labels[idx] != 0 {
			continue
		}

		next++
		out.labels[idx] = next
		seed := px
		queue = append(queue[:0], idx)

		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			row, col := g.Coordinate(cur)
			ref := g.pixels[cur]
			if seedMode {
				ref = seed
			}

			for _, d := range offsets {
				nr, nc := row+d[0], col+d[1]
				if !g.InBounds(nr, nc) {
					continue
				}
				n := g.Index(nr, nc)
				if out.labels[n] != 0 || !Connected(ref, g.pixels[n], p) {
					continue
				}
				out.labels[n] = next
				queue = append(queue, n)
			}
		}
	}

	out.events = int(next)
	return out
}

// unionFindLabel joins each burned pixel with its already-scanned connected
// neighbours, then resolves roots to compact labels in a second row-major pass.
func unionFindLabel(g *Grid, p Params) *LabelGrid {
	out := newLabelGrid(g.rows, g.cols)
	sets := newDisjointSet(len(g.pixels))
	backward := p.Adjacency.backwardOffsets()

	for idx, px := range g.pixels {
		if !px.Burned {
			continue
		}
		row, col := g.Coordinate(idx)
		for _, d := range backward {
			nr, nc := row+d[0], col+d[1]
			if !g.InBounds(nr, nc) {
				continue
			}
			n := g.Index(nr, nc)
			if Connected(px, g.pixels[n], p) {
				sets.union(idx, n)
			}
		}
	}

	rootLabel := make([]uint32, len(g.pixels))
	var next uint32
	for idx, px := range g.pixels {
		if !px.Burned {
			continue
		}
		root := sets.find(idx)
		if rootLabel[root] == 0 {
			next++
			rootLabel[root] = next
		}
		out.labels[idx] = rootLabel[root]
	}

	out.events = int(next)
	return out
}

// disjointSet is a union-by-size forest with path halving. Indices are
// plain ints so any grid that fits in memory can be labeled.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}
