package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the feed cache.
type CacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Errors *prometheus.CounterVec
}

// NewCacheMetrics creates and registers feed cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed_cache",
			Name:      "hits_total",
			Help:      "Total number of feed cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed_cache",
			Name:      "misses_total",
			Help:      "Total number of feed cache misses.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed_cache",
			Name:      "errors_total",
			Help:      "Total number of feed cache errors, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors)
	return m
}

func (m *CacheMetrics) Hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *CacheMetrics) Miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *CacheMetrics) Error(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
