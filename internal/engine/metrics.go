package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolver's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	Invocations     *prometheus.CounterVec
	DroppedTargets  *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	GraphQueries    *prometheus.CounterVec
	CompileRequests *prometheus.CounterVec
}

// NewMetrics creates unregistered resolver metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeq",
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Resolution runs by computation and outcome",
			},
			[]string{"computation", "outcome"},
		),

		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeq",
				Subsystem: "resolver",
				Name:      "invocations_total",
				Help:      "Bound invocations produced",
			},
			[]string{"computation"},
		),

		DroppedTargets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeq",
				Subsystem: "resolver",
				Name:      "dropped_targets_total",
				Help:      "Targets dropped by diagnostic code",
			},
			[]string{"computation", "code"},
		),

		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "seeq",
				Subsystem: "resolver",
				Name:      "duration_seconds",
				Help:      "Resolution run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"computation"},
		),

		GraphQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeq",
				Subsystem: "graph",
				Name:      "queries_total",
				Help:      "Compiled queries executed against the graph",
			},
			[]string{"status"},
		),

		CompileRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seeq",
				Subsystem: "compiler",
				Name:      "requests_total",
				Help:      "Shape compilations by cache result",
			},
			[]string{"cache"},
		),
	}
}

// Collectors returns every collector, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Resolutions,
		m.Invocations,
		m.DroppedTargets,
		m.Duration,
		m.GraphQueries,
		m.CompileRequests,
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeRun(computation string, outcome Outcome, invocations int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(computation, string(outcome)).Inc()
	m.Invocations.WithLabelValues(computation).Add(float64(invocations))
	m.Duration.WithLabelValues(computation).Observe(elapsed.Seconds())
}

func (m *Metrics) observeDropped(d Diagnostic) {
	if m == nil {
		return
	}
	m.DroppedTargets.WithLabelValues(d.Computation, string(d.Code)).Inc()
}

func (m *Metrics) observeQuery(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.GraphQueries.WithLabelValues(status).Inc()
}

func (m *Metrics) observeCompile(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CompileRequests.WithLabelValues(result).Inc()
}
