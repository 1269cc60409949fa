package config

// BatchConfig holds batch orchestrator settings
type BatchConfig struct {
	// Maximum concurrent workers, clamped to available CPUs at run time
	Workers int `mapstructure:"workers" validate:"min=1"`

	// Job dispatch rate in jobs per second (0 disables throttling)
	DispatchRate float64 `mapstructure:"dispatch_rate" validate:"min=0"`

	// Burst size for the dispatch limiter
	DispatchBurst int `mapstructure:"dispatch_burst" validate:"min=1"`

	// Extension of raster files discovered in a folder
	FileExtension string `mapstructure:"file_extension" validate:"required,startswith=."`

	// Also write a burn-date raster next to each label raster
	SaveBurnDates bool `mapstructure:"save_burn_dates"`

	// Persist runs, outcomes and events to the database
	RecordRuns bool `mapstructure:"record_runs"`
}
