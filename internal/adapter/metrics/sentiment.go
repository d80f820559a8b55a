package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

// SentimentMetrics tracks normalized analysis results.
type SentimentMetrics struct {
	AnalysesTotal *prometheus.CounterVec
	Scores        *prometheus.HistogramVec
}

// NewSentimentMetrics creates and registers sentiment metrics on the given registry.
func NewSentimentMetrics(reg prometheus.Registerer) *SentimentMetrics {
	m := &SentimentMetrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "analyses_total",
			Help:      "Total number of sentiment analyses, by outcome.",
		}, []string{"outcome"}),
		Scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "score",
			Help:      "Distribution of normalized scores, by class.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"class"}),
	}

	reg.MustRegister(m.AnalysesTotal, m.Scores)
	return m
}

func (m *SentimentMetrics) ObserveScores(s domain.Scores) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues("success").Inc()
	m.Scores.WithLabelValues("positive").Observe(s.Positive)
	m.Scores.WithLabelValues("neutral").Observe(s.Neutral)
	m.Scores.WithLabelValues("negative").Observe(s.Negative)
}

func (m *SentimentMetrics) ObserveFailure() {
	if m != nil {
		m.AnalysesTotal.WithLabelValues("failure").Inc()
	}
}
