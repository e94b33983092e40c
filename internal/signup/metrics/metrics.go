// Package metrics exposes prometheus instrumentation for the signup pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SignupsTotal           *prometheus.CounterVec
	SignupDuration         prometheus.Histogram
	WelcomeDeliveryFailure prometheus.Counter
}

// New registers the signup metrics. Pass nil to use the default registerer;
// tests pass their own registry to stay isolated.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SignupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_signups_total",
			Help: "Total signup attempts by outcome",
		}, []string{"outcome"}),
		SignupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "enroll_signup_duration_seconds",
			Help:    "Wall time of the full signup pipeline",
			Buckets: prometheus.DefBuckets,
		}),
		WelcomeDeliveryFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "enroll_welcome_delivery_failures_total",
			Help: "Welcome messages that could not be delivered after a committed signup",
		}),
	}
}

// RecordOutcome counts a finished signup attempt.
func (m *Metrics) RecordOutcome(outcome string) {
	m.SignupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records the pipeline wall time in seconds.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.SignupDuration.Observe(seconds)
}

// RecordWelcomeFailure counts an absorbed delivery failure.
func (m *Metrics) RecordWelcomeFailure() {
	m.WelcomeDeliveryFailure.Inc()
}
