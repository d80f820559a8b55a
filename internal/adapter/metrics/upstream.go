package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for upstream calls.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeMalformed      = "malformed"
	OutcomeNoCandidates   = "no_candidates"
)

// UpstreamMetrics tracks calls to external collaborators. A nil *UpstreamMetrics records nothing.
type UpstreamMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers upstream call metrics on the given registry.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream requests, by service and outcome.",
		}, []string{"service", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream requests in seconds, by service.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"service"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

func (m *UpstreamMetrics) Observe(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(service, outcome).Inc()
	m.RequestDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}
