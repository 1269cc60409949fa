package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// requestSubsystem groups mediator metrics apart from batch metrics
const requestSubsystem = "mediator"

// CommandMetricsCollector tracks mediator requests: how long they take, how
// many are in flight and how they end. Failures are labeled with their error
// kind so ConfigError rejections stand apart from canceled runs.
type CommandMetricsCollector struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
}

func NewCommandMetricsCollector() *CommandMetricsCollector {
	return &CommandMetricsCollector{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: requestSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Mediator request duration by request type and outcome",
				// batches range from a single tile to hour-long folder runs
				Buckets: []float64{0.005, 0.05, 0.5, 5, 30, 120, 600, 3600},
			},
			[]string{"request", "outcome"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: requestSubsystem,
				Name:      "requests_total",
				Help:      "Mediator requests by request type and outcome",
			},
			[]string{"request", "outcome"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: requestSubsystem,
				Name:      "requests_in_flight",
				Help:      "Mediator requests currently being handled",
			},
			[]string{"request"},
		),
	}
}

// Register adds the collectors to the global registry; a no-op when metrics are disabled
func (c *CommandMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, collector := range []prometheus.Collector{c.duration, c.requests, c.inFlight} {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Started marks a request as in flight
func (c *CommandMetricsCollector) Started(request string) {
	c.inFlight.WithLabelValues(request).Inc()
}

// Finished records a completed request. err may be non-nil alongside a
// response, as for canceled batches.
func (c *CommandMetricsCollector) Finished(request string, seconds float64, err error) {
	outcome := requestOutcome(err)
	c.inFlight.WithLabelValues(request).Dec()
	c.duration.WithLabelValues(request, outcome).Observe(seconds)
	c.requests.WithLabelValues(request, outcome).Inc()
}

// requestOutcome is "ok", the error kind, or "error" for unclassified failures
func requestOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := shared.ErrorKind(err); kind != "" {
		return kind
	}
	return "error"
}
