package raster

// EventSummary describes one labeled fire event.
type EventSummary struct {
	Label  uint32
	Pixels int
	// FirstDate and LastDate are meaningful only when HasDates is set
	FirstDate int
	LastDate  int
	HasDates  bool
	MinRow    int
	MinCol    int
	MaxRow    int
	MaxCol    int
}

// DurationDays returns the span between first and last detection, inclusive
func (s EventSummary) DurationDays() int {
	if !s.HasDates {
		return 0
	}
	return s.LastDate - s.FirstDate + 1
}

// Summarize returns one summary per event, ordered by label.
func Summarize(grid *Grid, labels *LabelGrid) []EventSummary {
	summaries := make([]EventSummary, labels.events)
	for i := range summaries {
		summaries[i] = EventSummary{Label: uint32(i + 1), MinRow: -1}
	}

	for idx, label := range labels.labels {
		if label == 0 {
			continue
		}
		s := &summaries[label-1]
		row, col := grid.Coordinate(idx)
		px := grid.pixels[idx]

		if s.MinRow < 0 {
			s.MinRow, s.MaxRow, s.MinCol, s.MaxCol = row, row, col, col
		} else {
			s.MinRow = min(s.MinRow, row)
			s.MaxRow = max(s.MaxRow, row)
			s.MinCol = min(s.MinCol, col)
			s.MaxCol = max(s.MaxCol, col)
		}
		s.Pixels++

		if px.HasDate {
			if !s.HasDates {
				s.FirstDate, s.LastDate, s.HasDates = px.Date, px.Date, true
			} else {
				s.FirstDate = min(s.FirstDate, px.Date)
				s.LastDate = max(s.LastDate, px.Date)
			}
		}
	}

	return summaries
}

// DateGrid holds the detection date of every labeled pixel and 0 elsewhere.
type DateGrid struct {
	rows  int
	cols  int
	dates []int
}

// BurnDates builds the burn-date companion raster of a label grid.
func BurnDates(grid *Grid, labels *LabelGrid) *DateGrid {
	out := &DateGrid{rows: grid.rows, cols: grid.cols, dates: make([]int, len(grid.pixels))}
	for idx, px := range grid.pixels {
		if labels.labels[idx] != 0 && px.HasDate {
			out.dates[idx] = px.Date
		}
	}
	return out
}

func (d *DateGrid) Rows() int { return d.rows }
func (d *DateGrid) Cols() int { return d.cols }

func (d *DateGrid) At(row, col int) int {
	return d.dates[row*d.cols+col]
}

// Values returns a row-major copy of the dates
func (d *DateGrid) Values() []int {
	cp := make([]int, len(d.dates))
	copy(cp, d.dates)
	return cp
}
