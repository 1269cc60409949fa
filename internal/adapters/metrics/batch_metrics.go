package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
)

// BatchMetricsCollector handles job and run metrics
type BatchMetricsCollector struct {
	jobsTotal         *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	eventsTotal       prometheus.Counter
	burnedPixelsTotal prometheus.Counter
	runsTotal         *prometheus.CounterVec
	activeWorkers     prometheus.Gauge
}

// NewBatchMetricsCollector creates a new batch metrics collector
func NewBatchMetricsCollector() *BatchMetricsCollector {
	return &BatchMetricsCollector{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_total",
				Help:      "Total number of finished jobs by status and error kind",
			},
			[]string{"status", "error_kind"},
		),

		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Job duration distribution from read to write",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),

		eventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of fire events labeled",
			},
		),

		burnedPixelsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "burned_pixels_total",
				Help:      "Total number of burned pixels labeled",
			},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of finished runs by status",
			},
			[]string{"status"},
		),

		activeWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_workers",
				Help:      "Effective worker count of the run in progress",
			},
		),
	}
}

// Register registers all batch metrics with the Prometheus registry
func (c *BatchMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.jobsTotal,
		c.jobDuration,
		c.eventsTotal,
		c.burnedPixelsTotal,
		c.runsTotal,
		c.activeWorkers,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordJobOutcome records one finished job
func (c *BatchMetricsCollector) RecordJobOutcome(outcome batch.Outcome) {
	status := string(outcome.Status)
	c.jobsTotal.WithLabelValues(status, outcome.ErrorKind).Inc()
	c.jobDuration.WithLabelValues(status).Observe(outcome.Duration.Seconds())

	if outcome.Succeeded() {
		c.eventsTotal.Add(float64(outcome.Events))
		c.burnedPixelsTotal.Add(float64(outcome.BurnedPixels))
	}
}

// RecordRunFinished counts the run and clears the worker gauge
func (c *BatchMetricsCollector) RecordRunFinished(run *batch.Run) {
	c.runsTotal.WithLabelValues(string(run.Status())).Inc()
	c.activeWorkers.Set(0)
}

func (c *BatchMetricsCollector) SetActiveWorkers(n int) {
	c.activeWorkers.Set(float64(n))
}
