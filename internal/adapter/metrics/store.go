package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PostgresMetrics tracks feedback store queries, labelled by statement kind.
type PostgresMetrics struct {
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

func NewPostgresMetrics(reg prometheus.Registerer) *PostgresMetrics {
	m := &PostgresMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "query_duration_seconds",
			Help:      "Duration of feedback store queries in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"statement"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "postgres",
			Name:      "query_errors_total",
			Help:      "Total number of failed feedback store queries.",
		}, []string{"statement"}),
	}

	reg.MustRegister(m.QueryDuration, m.QueryErrors)
	return m
}

func (m *PostgresMetrics) ObserveQuery(statement string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(statement).Observe(elapsed.Seconds())
	if err != nil {
		m.QueryErrors.WithLabelValues(statement).Inc()
	}
}

// RedisMetrics tracks commands sent to the feed cache.
type RedisMetrics struct {
	OpsTotal         *prometheus.CounterVec
	OpDuration       *prometheus.HistogramVec
	ConnectionErrors prometheus.Counter
}

func NewRedisMetrics(reg prometheus.Registerer) *RedisMetrics {
	m := &RedisMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total number of Redis commands, by command and status.",
		}, []string{"operation", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis commands in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"operation"}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total number of failed Redis dials.",
		}),
	}

	reg.MustRegister(m.OpsTotal, m.OpDuration, m.ConnectionErrors)
	return m
}

func (m *RedisMetrics) ObserveOp(operation string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.OpsTotal.WithLabelValues(operation, status).Inc()
	m.OpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *RedisMetrics) DialFailed() {
	if m != nil {
		m.ConnectionErrors.Inc()
	}
}
