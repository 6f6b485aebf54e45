package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// Metrics holds the gate's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	lockouts        *prometheus.CounterVec
	registry        *prometheus.Registry
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "portunus"
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mfa",
			Name:      "attempts_total",
			Help:      "MFA attempts by outcome and the factor that ended them",
		},
		[]string{"outcome", "factor"},
	)

	m.attemptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mfa",
			Name:      "duration_seconds",
			Help:      "Wall time of an MFA attempt, gesture capture included",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	m.lockouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mfa",
			Name:      "lockouts_total",
			Help:      "Entities moved to a blocked or expired state by validation",
		},
		[]string{"factor", "state"},
	)

	m.registry.MustRegister(m.attemptsTotal, m.attemptDuration, m.lockouts)
	return m
}

func (m *Metrics) ObserveAttempt(outcome, factor string, d time.Duration) {
	if m == nil {
		return
	}
	if factor == "" {
		factor = "none"
	}
	m.attemptsTotal.WithLabelValues(outcome, factor).Inc()
	m.attemptDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveLockout(factor, state string) {
	if m == nil {
		return
	}
	m.lockouts.WithLabelValues(factor, state).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
