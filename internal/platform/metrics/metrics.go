package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics for the host
type Metrics struct {
	// Request latency by route pattern, method and status class
	RequestLatency *prometheus.HistogramVec

	// Requests rejected by the auth middleware
	AuthFailures prometheus.Counter
}

// New creates and registers the HTTP metrics. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucp_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),

		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ucp_http_auth_failures_total",
			Help: "Requests rejected for a missing or invalid bearer token",
		}),
	}
}

// ObserveRequestLatency records the duration of one request.
func (m *Metrics) ObserveRequestLatency(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}

// IncrementAuthFailures increments the auth failure counter by 1
func (m *Metrics) IncrementAuthFailures() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}
