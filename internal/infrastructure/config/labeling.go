package config

import "github.com/andrescamacho/floodfill-go/internal/domain/raster"

// LabelingConfig holds the connectivity rule and labeling engine settings
type LabelingConfig struct {
	// Adjacency mode: 4 or 8
	Adjacency int `mapstructure:"adjacency" validate:"oneof=4 8"`

	// Temporal window in date units (days). Ignored when SpatialOnly is set.
	CutOff *int `mapstructure:"cut_off" validate:"omitempty,min=0"`

	// Disable the temporal test entirely
	SpatialOnly bool `mapstructure:"spatial_only"`

	// What a candidate's date is compared against: pairwise or seed
	TemporalMode string `mapstructure:"temporal_mode" validate:"oneof=pairwise seed"`

	// Labeling algorithm: floodfill or unionfind
	Strategy string `mapstructure:"strategy" validate:"oneof=floodfill unionfind"`

	// Inclusive range of raw raster values treated as burn dates
	LowerValue int `mapstructure:"lower_value" validate:"min=0"`
	UpperValue int `mapstructure:"upper_value" validate:"gtefield=LowerValue"`
}

// Params converts the section into labeling engine parameters
func (c LabelingConfig) Params() (raster.Params, error) {
	mode, err := raster.ParseTemporalMode(c.TemporalMode)
	if err != nil {
		return raster.Params{}, err
	}
	strategy, err := raster.ParseStrategy(c.Strategy)
	if err != nil {
		return raster.Params{}, err
	}

	p := raster.Params{
		Adjacency: raster.Adjacency(c.Adjacency),
		Window:    raster.DefaultCutOff,
		Temporal:  !c.SpatialOnly,
		Mode:      mode,
		Strategy:  strategy,
	}
	if c.CutOff != nil {
		p.Window = *c.CutOff
	}

	if err := p.Validate(); err != nil {
		return raster.Params{}, err
	}
	return p, nil
}

// BurnWindow returns the inclusive burn value range
func (c LabelingConfig) BurnWindow() (raster.BurnWindow, error) {
	w := raster.BurnWindow{Lower: c.LowerValue, Upper: c.UpperValue}
	return w, w.Validate()
}
