// Package httpserver exposes the application service over HTTP with Echo.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/app"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

type appService interface {
	AnalyzeText(ctx context.Context, text string) (domain.Scores, error)
	Suggest(ctx context.Context, prompt string) (string, error)
	Posts(ctx context.Context) ([]domain.Post, error)
	SubmitFeedback(ctx context.Context, in app.FeedbackInput) (*domain.Feedback, error)
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
}

// Options carries the optional pieces of the server. A nil Registry leaves
// /metrics unmounted.
type Options struct {
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	HealthChecks []HealthCheck
}

type Server struct {
	echo *echo.Echo
	port string
	app  appService

	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(port string, app appService, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	srv := &Server{
		echo:         e,
		port:         port,
		app:          app,
		registry:     opts.Registry,
		httpMetrics:  opts.HTTPMetrics,
		healthChecks: opts.HealthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()
	return srv
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets the server be driven directly, e.g. by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
