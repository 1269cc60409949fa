package raster

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// DefaultCutOff is the default temporal window in days
const DefaultCutOff = 8

// TemporalMode selects what a candidate pixel's date is compared against.
type TemporalMode string

const (
	// TemporalPairwise compares each candidate with the adjacent pixel it is reached from
	TemporalPairwise TemporalMode = "pairwise"
	// TemporalSeed compares each candidate with the seed pixel of its event
	TemporalSeed TemporalMode = "seed"
)

// ParseTemporalMode accepts "pairwise" or "seed"
func ParseTemporalMode(s string) (TemporalMode, error) {
	switch TemporalMode(strings.ToLower(strings.TrimSpace(s))) {
	case TemporalPairwise:
		return TemporalPairwise, nil
	case TemporalSeed:
		return TemporalSeed, nil
	default:
		return "", shared.NewConfigError("temporal mode", fmt.Sprintf("unknown mode %q (expected pairwise or seed)", s))
	}
}

// Strategy selects the labeling algorithm. All strategies yield identical label grids.
type Strategy string

const (
	StrategyFloodFill Strategy = "floodfill"
	StrategyUnionFind Strategy = "unionfind"
)

// ParseStrategy accepts "floodfill" or "unionfind"
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyFloodFill:
		return StrategyFloodFill, nil
	case StrategyUnionFind:
		return StrategyUnionFind, nil
	default:
		return "", shared.NewConfigError("strategy", fmt.Sprintf("unknown strategy %q (expected floodfill or unionfind)", s))
	}
}

// Params configures the connectivity rule and the labeling engine.
type Params struct {
	Adjacency Adjacency
	// Window is the maximum date difference, in date units, between connected pixels.
	Window int
	// Temporal enables the date test. When false labeling is purely spatial.
	Temporal bool
	Mode     TemporalMode
	Strategy Strategy
}

// DefaultParams returns 8-connectivity with an 8 day pairwise window and flood fill
func DefaultParams() Params {
	return Params{
		Adjacency: Adjacency8,
		Window:    DefaultCutOff,
		Temporal:  true,
		Mode:      TemporalPairwise,
		Strategy:  StrategyFloodFill,
	}
}

// SpatialParams returns params for pure spatial flood fill
func SpatialParams(adjacency Adjacency) Params {
	p := DefaultParams()
	p.Adjacency = adjacency
	p.Temporal = false
	return p
}

// Validate reports the first invalid parameter as a ConfigError.
// Empty Mode and Strategy fall back to their defaults.
func (p Params) Validate() error {
	if !p.Adjacency.Valid() {
		return shared.NewConfigError("adjacency", fmt.Sprintf("unknown mode %d (expected 4 or 8)", int(p.Adjacency)))
	}
	if p.Window < 0 {
		return shared.NewConfigError("temporal window", fmt.Sprintf("must not be negative, got %d", p.Window))
	}

	mode := p.mode()
	if mode != TemporalPairwise && mode != TemporalSeed {
		return shared.NewConfigError("temporal mode", fmt.Sprintf("unknown mode %q", p.Mode))
	}

	switch p.strategy() {
	case StrategyFloodFill:
	case StrategyUnionFind:
		// seed-relative dates do not form an equivalence relation
		if p.Temporal && mode == TemporalSeed {
			return shared.NewConfigError("strategy", "unionfind requires the pairwise temporal mode")
		}
	default:
		return shared.NewConfigError("strategy", fmt.Sprintf("unknown strategy %q", p.Strategy))
	}

	return nil
}

func (p Params) mode() TemporalMode {
	if p.Mode == "" {
		return TemporalPairwise
	}
	return p.Mode
}

func (p Params) strategy() Strategy {
	if p.Strategy == "" {
		return StrategyFloodFill
	}
	return p.Strategy
}

func (p Params) String() string {
	if !p.Temporal {
		return fmt.Sprintf("%s, spatial only, %s", p.Adjacency, p.strategy())
	}
	return fmt.Sprintf("%s, window %d (%s), %s", p.Adjacency, p.Window, p.mode(), p.strategy())
}

// Connected decides whether two spatially adjacent pixels belong to the same
// fire event. Unburned pixels never connect. The date test applies only when
// Temporal is set and both pixels carry a date.
func Connected(a, b Pixel, p Params) bool {
	if !a.Burned || !b.Burned {
		return false
	}
	if !p.Temporal || !a.HasDate || !b.HasDate {
		return true
	}

	diff := a.Date - b.Date
	if diff < 0 {
		diff = -diff
	}
	return diff <= p.Window
}
