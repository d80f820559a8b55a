package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	appmetrics "github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	apperrors "github.com/pscheid92/feedback-pulse/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, correlationHeader},
	}))
	s.echo.Use(middleware.BodyLimit("1M"))
	s.echo.Use(correlationMiddleware)
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware())
	// Recover sits inside the error middleware so panics get the JSON error body.
	s.echo.Use(recoverMiddleware())

	s.registerHealthRoutes()
	s.registerAPIRoutes()

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(appmetrics.Handler(s.registry)))
	}
}

func (s *Server) registerAPIRoutes() {
	s.echo.POST("/analyze", s.handleAnalyze)
	s.echo.POST("/gemini", s.handleSuggest)
	s.echo.GET("/api/reddit/posts", s.handlePosts)
	s.echo.GET("/products", s.handleListFeedback)
	s.echo.POST("/products", s.handleSubmitFeedback)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

// recoverMiddleware turns a handler panic into an internal error returned up the
// chain. The stack goes to the log, never to the client.
func recoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll:     true,
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.ErrorContext(c.Request().Context(), "Recovered from panic",
				"error", err,
				"path", c.Request().URL.Path,
				"stack", string(stack),
			)
			return apperrors.InternalError("internal server error", err)
		},
	})
}
