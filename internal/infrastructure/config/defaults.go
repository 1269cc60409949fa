package config

import (
	"time"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Labeling defaults follow the Archibald & Roy floodfill settings
	if cfg.Labeling.Adjacency == 0 {
		cfg.Labeling.Adjacency = int(raster.Adjacency8)
	}
	if cfg.Labeling.CutOff == nil {
		cutOff := raster.DefaultCutOff
		cfg.Labeling.CutOff = &cutOff
	}
	if cfg.Labeling.TemporalMode == "" {
		cfg.Labeling.TemporalMode = string(raster.TemporalPairwise)
	}
	if cfg.Labeling.Strategy == "" {
		cfg.Labeling.Strategy = string(raster.StrategyFloodFill)
	}
	if cfg.Labeling.LowerValue == 0 {
		cfg.Labeling.LowerValue = raster.DefaultLowerBurnValue
	}
	if cfg.Labeling.UpperValue == 0 {
		cfg.Labeling.UpperValue = raster.DefaultUpperBurnValue
	}

	// Batch defaults
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 1
	}
	if cfg.Batch.DispatchBurst == 0 {
		cfg.Batch.DispatchBurst = 1
	}
	if cfg.Batch.FileExtension == "" {
		cfg.Batch.FileExtension = ".tif"
	}

	// Database defaults (local sqlite run history)
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "floodfill.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "floodfill"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "floodfill"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/floodfill-daemon.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/floodfill-daemon.pid"
	}
	if cfg.Daemon.MaxConcurrentRuns == 0 {
		cfg.Daemon.MaxConcurrentRuns = 2
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}
}
