package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payment dispatch.
type Metrics struct {
	// Processing outcomes by handler and status
	Outcomes *prometheus.CounterVec

	// Credentials refused during instrument acquisition, by handler
	AcquisitionFailures *prometheus.CounterVec

	// Lookups for names with no registered handler
	UnknownHandlers prometheus.Counter

	// Full acquire+process latency by handler
	DispatchLatency *prometheus.HistogramVec
}

// New registers payment metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ucp_payment_outcomes_total",
			Help: "Payment processing outcomes by handler and status",
		}, []string{"handler", "status"}),

		AcquisitionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ucp_payment_acquisition_failures_total",
			Help: "Credentials refused by a handler during instrument acquisition",
		}, []string{"handler"}),

		UnknownHandlers: factory.NewCounter(prometheus.CounterOpts{
			Name: "ucp_payment_unknown_handler_total",
			Help: "Dispatch attempts naming an unregistered payment handler",
		}),

		DispatchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucp_payment_dispatch_duration_seconds",
			Help:    "Duration of instrument acquisition plus payment processing",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"handler"}),
	}
}

// IncrementOutcome records a processing outcome.
func (m *Metrics) IncrementOutcome(handler, status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(handler, status).Inc()
	}
}

// IncrementAcquisitionFailure records a refused credential.
func (m *Metrics) IncrementAcquisitionFailure(handler string) {
	if m != nil {
		m.AcquisitionFailures.WithLabelValues(handler).Inc()
	}
}

// IncrementUnknownHandler records a lookup miss.
func (m *Metrics) IncrementUnknownHandler() {
	if m != nil {
		m.UnknownHandlers.Inc()
	}
}

// ObserveDispatchLatency records the dispatch duration.
func (m *Metrics) ObserveDispatchLatency(handler string, d time.Duration) {
	if m != nil {
		m.DispatchLatency.WithLabelValues(handler).Observe(d.Seconds())
	}
}
