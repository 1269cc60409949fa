package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
)

const (
	// Namespace for all metrics
	namespace = "floodfill"
	// Subsystem for batch metrics
	subsystem = "batch"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCollector is the singleton batch metrics collector
	// Set by SetGlobalCollector() when metrics are enabled
	globalCollector BatchMetricsRecorder
)

// BatchMetricsRecorder defines the interface for recording batch metrics events
// This interface is used by application code to record metrics
type BatchMetricsRecorder interface {
	RecordJobOutcome(outcome batch.Outcome)
	RecordRunFinished(run *batch.Run)
	SetActiveWorkers(n int)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector sets the global metrics collector
func SetGlobalCollector(collector BatchMetricsRecorder) {
	globalCollector = collector
}

// RecordJobOutcome records a finished job globally
func RecordJobOutcome(outcome batch.Outcome) {
	if globalCollector != nil {
		globalCollector.RecordJobOutcome(outcome)
	}
}

// RecordRunFinished records a finished run globally
func RecordRunFinished(run *batch.Run) {
	if globalCollector != nil {
		globalCollector.RecordRunFinished(run)
	}
}

// SetActiveWorkers publishes the worker count of the current run
func SetActiveWorkers(n int) {
	if globalCollector != nil {
		globalCollector.SetActiveWorkers(n)
	}
}

// Handler serves the global registry in the Prometheus exposition format
func Handler() http.Handler {
	if Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Serve exposes the metrics endpoint until ctx is done
func Serve(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, Handler())

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Setup initializes the registry and the batch and command collectors when
// metrics are enabled. The returned command collector is nil otherwise.
func Setup(cfg config.MetricsConfig) (*CommandMetricsCollector, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	InitRegistry()

	batchCollector := NewBatchMetricsCollector()
	if err := batchCollector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register batch metrics: %w", err)
	}
	SetGlobalCollector(batchCollector)

	commandCollector := NewCommandMetricsCollector()
	if err := commandCollector.Register(); err != nil {
		return nil, fmt.Errorf("failed to register command metrics: %w", err)
	}

	return commandCollector, nil
}
