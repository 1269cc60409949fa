package steps

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

type labelingContext struct {
	grid   *raster.Grid
	params raster.Params
	labels *raster.LabelGrid
}

func (lc *labelingContext) reset() {
	lc.grid = nil
	lc.params = raster.DefaultParams()
	lc.labels = nil
}

// Given steps

func (lc *labelingContext) theBurnedAreaGrid(table *godog.Table) error {
	grid, err := helpers.ParseGrid(tableLines(table)...)
	if err != nil {
		return err
	}
	lc.grid = grid
	return nil
}

func (lc *labelingContext) connectivity(adjacency int) error {
	lc.params.Adjacency = raster.Adjacency(adjacency)
	return lc.params.Validate()
}

func (lc *labelingContext) aTemporalWindowOfDays(days int) error {
	lc.params.Temporal = true
	lc.params.Window = days
	return nil
}

func (lc *labelingContext) noTemporalWindow() error {
	lc.params.Temporal = false
	return nil
}

func (lc *labelingContext) theTemporalMode(mode string) error {
	m, err := raster.ParseTemporalMode(mode)
	if err != nil {
		return err
	}
	lc.params.Mode = m
	return nil
}

// When steps

func (lc *labelingContext) iLabelTheGrid() error {
	if lc.grid == nil {
		return fmt.Errorf("no grid given")
	}
	if err := lc.params.Validate(); err != nil {
		return err
	}
	lc.labels = raster.Label(lc.grid, lc.params)
	return nil
}

// Then steps

func (lc *labelingContext) thereAreEvents(events int) error {
	if lc.labels.Events() != events {
		return fmt.Errorf("expected %d events, got %d", events, lc.labels.Events())
	}
	return nil
}

func (lc *labelingContext) theLabelsAre(table *godog.Table) error {
	want, err := helpers.ParseLabels(tableLines(table)...)
	if err != nil {
		return err
	}
	if got := lc.labels.Rows2D(); !reflect.DeepEqual(got, want) {
		return fmt.Errorf("expected labels %v, got %v", want, got)
	}
	return nil
}

func (lc *labelingContext) labelingTheGridAgainYieldsIdenticalLabels() error {
	if again := raster.Label(lc.grid, lc.params); !again.Equal(lc.labels) {
		return fmt.Errorf("second labeling differs: %v vs %v", again.Rows2D(), lc.labels.Rows2D())
	}
	return nil
}

func (lc *labelingContext) theUnionFindStrategyYieldsIdenticalLabels() error {
	p := lc.params
	p.Strategy = raster.StrategyUnionFind
	if err := p.Validate(); err != nil {
		return err
	}
	if uf := raster.Label(lc.grid, p); !uf.Equal(lc.labels) {
		return fmt.Errorf("union-find labels %v differ from flood fill %v", uf.Rows2D(), lc.labels.Rows2D())
	}
	return nil
}

func (lc *labelingContext) everyBurnedPixelHasALabel() error {
	for r := 0; r < lc.grid.Rows(); r++ {
		for c := 0; c < lc.grid.Cols(); c++ {
			burned := lc.grid.At(r, c).Burned
			labeled := lc.labels.At(r, c) != 0
			if burned != labeled {
				return fmt.Errorf("pixel (%d,%d): burned=%t labeled=%t", r, c, burned, labeled)
			}
		}
	}
	return nil
}

func InitializeLabelingScenario(sc *godog.ScenarioContext) {
	lc := &labelingContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		lc.reset()
		return ctx, nil
	})

	// Given steps
	sc.Step(`^the burned-area grid:$`, lc.theBurnedAreaGrid)
	sc.Step(`^(\d)-connectivity$`, lc.connectivity)
	sc.Step(`^a temporal window of (\d+) days$`, lc.aTemporalWindowOfDays)
	sc.Step(`^no temporal window$`, lc.noTemporalWindow)
	sc.Step(`^the "([^"]*)" temporal mode$`, lc.theTemporalMode)

	// When steps
	sc.Step(`^I label the grid$`, lc.iLabelTheGrid)

	// Then steps
	sc.Step(`^there (?:is|are) (\d+) events?$`, lc.thereAreEvents)
	sc.Step(`^the labels are:$`, lc.theLabelsAre)
	sc.Step(`^labeling the grid again yields identical labels$`, lc.labelingTheGridAgainYieldsIdenticalLabels)
	sc.Step(`^the union-find strategy yields identical labels$`, lc.theUnionFindStrategyYieldsIdenticalLabels)
	sc.Step(`^every burned pixel has a label$`, lc.everyBurnedPixelHasALabel)
}
