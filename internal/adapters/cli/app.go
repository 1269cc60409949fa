package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/adapters/gridstore"
	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/database"
	infralogging "github.com/andrescamacho/floodfill-go/internal/infrastructure/logging"
)

// app is the in-process composition used by run and runs
type app struct {
	cfg      *config.Config
	mediator mediator.Mediator
	logger   logging.JobLogger

	db        *gorm.DB
	logCloser io.Closer
}

// newApp wires the labeling handlers. The history database is opened when
// runs are recorded, logs are persisted or withHistory is set.
func newApp(cfg *config.Config, withHistory bool) (*app, error) {
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, closer, err := infralogging.New(logCfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, logCloser: closer, mediator: mediator.NewMediator()}

	window, err := cfg.Labeling.BurnWindow()
	if err != nil {
		a.Close()
		return nil, err
	}
	store := gridstore.NewTIFFStore(window)

	var (
		runs       batch.RunRepository
		recorder   batch.RunRecorder
		logs       persistence.JobLogRepository
		runLoggers labeling.RunLoggerFactory
	)
	if withHistory || cfg.Batch.RecordRuns || cfg.Logging.Persist {
		a.db, err = database.Open(&cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		runRepo := persistence.NewGormRunRepository(a.db, nil)
		logRepo := persistence.NewGormJobLogRepository(a.db, nil)
		runs, logs = runRepo, logRepo
		if cfg.Batch.RecordRuns {
			recorder = runRepo
		}
		if cfg.Logging.Persist {
			runLoggers = func(runID string) logging.JobLogger {
				return persistence.NewRunLogger(logRepo, runID)
			}
		}
	}

	orchestrator := labeling.NewOrchestrator(store, store, recorder, nil)
	if err := labeling.RegisterHandlers(a.mediator, orchestrator, runLoggers, runs, logs); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}
	return a, nil
}

// context attaches the app logger
func (a *app) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.logger)
}

func (a *app) Close() {
	if a.db != nil {
		_ = database.Close(a.db)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// loadConfig reads the configuration named by --config
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath)
}

// labelingFlags are the labeling and batch overrides shared by run and submit
type labelingFlags struct {
	adjacency     int
	cutOff        int
	spatialOnly   bool
	temporalMode  string
	strategy      string
	lowerValue    int
	upperValue    int
	workers       int
	extension     string
	saveBurnDates bool
}

func (f *labelingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.adjacency, "adjacency", 8, "Pixel adjacency: 4 or 8")
	flags.IntVar(&f.cutOff, "cut-off", 8, "Maximum burn-date difference in days between connected pixels")
	flags.BoolVar(&f.spatialOnly, "spatial-only", false, "Ignore burn dates; connect every adjacent burned pixel")
	flags.StringVar(&f.temporalMode, "temporal-mode", "pairwise", "Date comparison: pairwise (neighbor) or seed (event's first pixel)")
	flags.StringVar(&f.strategy, "strategy", "floodfill", "Labeling algorithm: floodfill or unionfind")
	flags.IntVar(&f.lowerValue, "lower-value", 1, "Lowest raster value treated as a burn date")
	flags.IntVar(&f.upperValue, "upper-value", 366, "Highest raster value treated as a burn date")
	flags.IntVar(&f.workers, "workers", 1, "Maximum concurrent jobs (clamped to available CPUs)")
	flags.StringVar(&f.extension, "file-extension", ".tif", "Extension of rasters discovered in an input folder")
	flags.BoolVarP(&f.saveBurnDates, "save-burn-dates", "b", false, "Also write a burn-date raster per input")
	cmd.MarkFlagsMutuallyExclusive("cut-off", "spatial-only")
}

// apply overlays the flags the user set on cfg
func (f *labelingFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("adjacency") {
		cfg.Labeling.Adjacency = f.adjacency
	}
	if changed("cut-off") {
		cutOff := f.cutOff
		cfg.Labeling.CutOff = &cutOff
	}
	if changed("spatial-only") {
		cfg.Labeling.SpatialOnly = f.spatialOnly
	}
	if changed("temporal-mode") {
		cfg.Labeling.TemporalMode = f.temporalMode
	}
	if changed("strategy") {
		cfg.Labeling.Strategy = f.strategy
	}
	if changed("lower-value") {
		cfg.Labeling.LowerValue = f.lowerValue
	}
	if changed("upper-value") {
		cfg.Labeling.UpperValue = f.upperValue
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("file-extension") {
		cfg.Batch.FileExtension = f.extension
	}
	if changed("save-burn-dates") {
		cfg.Batch.SaveBurnDates = f.saveBurnDates
	}
}

// optionsFromConfig builds orchestrator options from a validated config
func optionsFromConfig(cfg *config.Config) (labeling.Options, error) {
	params, err := cfg.Labeling.Params()
	if err != nil {
		return labeling.Options{}, err
	}
	opts := labeling.Options{
		MaxWorkers:    cfg.Batch.Workers,
		Params:        params,
		DispatchRate:  cfg.Batch.DispatchRate,
		DispatchBurst: cfg.Batch.DispatchBurst,
		SaveBurnDates: cfg.Batch.SaveBurnDates,
	}
	return opts, opts.Validate()
}
