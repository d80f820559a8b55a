package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// UnmatchedRoute is the route label for requests no registered route served.
// Raw URLs never become label values.
const UnmatchedRoute = "unmatched"

// HTTPMetrics counts API requests by route and times them.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics on the given registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests, by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		// /analyze and /gemini wait on a collaborator, so the tail reaches the upstream timeout.
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds, by method and route.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// Middleware records one sample per API request. Scrape, probe and /version
// traffic is not recorded.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isOperationalRoute(c.Path()) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			method := c.Request().Method
			route := routeLabel(c)
			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func isOperationalRoute(route string) bool {
	return route == "/metrics" || route == "/version" || strings.HasPrefix(route, "/health/")
}

// routeLabel returns the matched route template. The router answers misses
// with 404 or 405 and may leave a partial node path behind, so those collapse
// to UnmatchedRoute.
func routeLabel(c echo.Context) string {
	route := c.Path()
	switch c.Response().Status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return UnmatchedRoute
	}
	if route == "" {
		return UnmatchedRoute
	}
	return route
}
