package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/andrescamacho/floodfill-go/internal/adapters/gridstore"
	"github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
	"github.com/andrescamacho/floodfill-go/internal/adapters/metrics"
	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/internal/application/mediator"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/database"
	infralogging "github.com/andrescamacho/floodfill-go/internal/infrastructure/logging"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/pidfile"
)

func main() {
	// Parse command-line flags
	configFlag := flag.String("config", "", "Path to config file")
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	flag.Parse()

	fmt.Println("floodfill Daemon v0.1.0")
	fmt.Println("=======================")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
		fmt.Println("Force mode enabled - attempting to kill existing daemon...")
		if killErr := pf.KillExisting(cfg.Daemon.ShutdownTimeout); killErr != nil {
			log.Fatalf("Failed to kill existing daemon: %v", killErr)
		}
		fmt.Println("Existing daemon killed")

		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
		}
	}

	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Printf("Fatal error: %v", err)
		_ = pf.Release()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 1. Logger
	logger, closer, err := infralogging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closer.Close()

	// 2. Run history database (optional)
	var (
		runs       batch.RunRepository
		recorder   batch.RunRecorder
		logs       persistence.JobLogRepository
		runLoggers labeling.RunLoggerFactory
	)
	if cfg.Batch.RecordRuns || cfg.Logging.Persist {
		fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
		db, err := database.Open(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close(db)
		fmt.Println("Database connected")

		runRepo := persistence.NewGormRunRepository(db, nil)
		logRepo := persistence.NewGormJobLogRepository(db, nil)
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

	// 3. Grid source and sink
	window, err := cfg.Labeling.BurnWindow()
	if err != nil {
		return err
	}
	store := gridstore.NewTIFFStore(window)
	fmt.Printf("TIFF store initialized (burn values %s)\n", window)

	// 4. Metrics
	commandCollector, err := metrics.Setup(cfg.Metrics)
	if err != nil {
		return err
	}
	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.Metrics); err != nil {
				log.Printf("Warning: %v", err)
			}
		}()
		fmt.Printf("Metrics served on %s\n", cfg.Metrics.Endpoint())
	}

	// 5. Mediator and handlers
	med := mediator.NewMediator()
	med.Use(loggerMiddleware(logger))
	med.Use(metrics.PrometheusMiddleware(commandCollector))

	orchestrator := labeling.NewOrchestrator(store, store, recorder, nil)
	if err := labeling.RegisterHandlers(med, orchestrator, runLoggers, runs, logs); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	fmt.Println("Handlers registered")

	// 6. gRPC server
	server, err := grpc.NewDaemonServer(med, grpc.ServerOptions{
		SocketPath:        cfg.Daemon.SocketPath,
		MaxConcurrentRuns: cfg.Daemon.MaxConcurrentRuns,
		ShutdownTimeout:   cfg.Daemon.ShutdownTimeout,
		Labeling:          cfg.Labeling,
		Batch:             cfg.Batch,
	})
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}

	logger.Log(logging.LevelInfo, "Daemon started", map[string]interface{}{
		"socket":              cfg.Daemon.SocketPath,
		"max_concurrent_runs": cfg.Daemon.MaxConcurrentRuns,
		"started_at":          time.Now().Format(time.RFC3339),
	})
	return server.Start()
}

// loggerMiddleware attaches the daemon logger to every request context
func loggerMiddleware(logger logging.JobLogger) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		return next(logging.WithLogger(ctx, logger), request)
	}
}
