package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for capability invocations.
type Metrics struct {
	// Normalized results by capability and classified shape
	Normalizations *prometheus.CounterVec

	// Downstream failures by capability and error code
	InvocationFailures *prometheus.CounterVec

	// Time spent in the downstream call by capability
	InvocationLatency *prometheus.HistogramVec
}

// New registers envelope metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Normalizations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ucp_envelope_normalizations_total",
			Help: "Downstream results normalized into envelopes, by capability and shape",
		}, []string{"capability", "shape"}),

		InvocationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ucp_envelope_invocation_failures_total",
			Help: "Capability invocations that returned an error, by capability and code",
		}, []string{"capability", "code"}),

		InvocationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucp_envelope_invocation_duration_seconds",
			Help:    "Duration of downstream capability invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{"capability"}),
	}
}

// IncrementNormalization records a normalized result.
func (m *Metrics) IncrementNormalization(capability, shape string) {
	if m != nil {
		m.Normalizations.WithLabelValues(capability, shape).Inc()
	}
}

// IncrementInvocationFailure records a failed invocation.
func (m *Metrics) IncrementInvocationFailure(capability, code string) {
	if m != nil {
		m.InvocationFailures.WithLabelValues(capability, code).Inc()
	}
}

// ObserveInvocationLatency records the downstream call duration.
func (m *Metrics) ObserveInvocationLatency(capability string, d time.Duration) {
	if m != nil {
		m.InvocationLatency.WithLabelValues(capability).Observe(d.Seconds())
	}
}
