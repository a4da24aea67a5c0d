package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the rate limiting Prometheus metrics.
type Metrics struct {
	// Requests rejected by class
	Rejections *prometheus.CounterVec

	// Checks answered by the in-memory fallback
	FallbackChecks prometheus.Counter

	// 1 while the primary store's circuit is open
	Degraded prometheus.Gauge
}

// New creates and registers the rate limiting metrics. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ucp_ratelimit_rejections_total",
			Help: "Requests rejected for exceeding their rate limit, by endpoint class",
		}, []string{"class"}),
		FallbackChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ucp_ratelimit_fallback_checks_total",
			Help: "Rate limit checks answered by the in-memory fallback store",
		}),
		Degraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ucp_ratelimit_degraded",
			Help: "Whether rate limiting is running on the in-memory fallback (1) or the primary store (0)",
		}),
	}
}

func (m *Metrics) IncrementRejection(class string) {
	if m != nil {
		m.Rejections.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncrementFallback() {
	if m != nil {
		m.FallbackChecks.Inc()
	}
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
