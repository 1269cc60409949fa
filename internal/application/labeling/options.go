package labeling

import (
	"runtime"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
	"github.com/andrescamacho/floodfill-go/pkg/utils"
)

// Options configures one batch run
type Options struct {
	// RunID names the run; generated when empty
	RunID string

	// MaxWorkers is the requested concurrency. It is clamped to GOMAXPROCS
	// and to the job count, never rejected for being too large.
	MaxWorkers int `validate:"min=1"`

	Params raster.Params

	// DispatchRate throttles job starts in jobs per second; 0 disables it
	DispatchRate  float64 `validate:"min=0"`
	DispatchBurst int     `validate:"min=0"`

	// SaveBurnDates writes the burn-date raster of jobs that name one
	SaveBurnDates bool
}

// DefaultOptions returns single-worker options with default labeling params
func DefaultOptions() Options {
	return Options{MaxWorkers: 1, Params: raster.DefaultParams()}
}

// Validate reports invalid options as a ConfigError
func (o Options) Validate() error {
	if err := config.NewValidator().Validate(o); err != nil {
		return err
	}
	return o.Params.Validate()
}

// EffectiveWorkers is min(requested, GOMAXPROCS, jobs), and at least 1
func EffectiveWorkers(requested, jobs int) int {
	return utils.Clamp(utils.Min(requested, runtime.GOMAXPROCS(0), jobs), 1, requested)
}

func (o Options) burst() int {
	if o.DispatchBurst < 1 {
		return 1
	}
	return o.DispatchBurst
}
