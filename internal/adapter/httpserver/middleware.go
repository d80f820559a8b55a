package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/pscheid92/feedback-pulse/internal/platform/correlation"
	apperrors "github.com/pscheid92/feedback-pulse/internal/platform/errors"
)

const correlationHeader = correlation.HeaderName

// correlationMiddleware reuses a well-formed inbound request ID or mints one,
// and echoes it back on the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromInbound(c.Request().Header.Get(correlationHeader))
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlationHeader, id)
		return next(c)
	}
}

func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				err = WrapHTTPError(httpErr)
			}

			structuredErr := toStructuredError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// toStructuredError maps domain failures onto the HTTP error taxonomy.
// Details carries the raw collaborator body or payload for diagnostics.
func toStructuredError(err error) *apperrors.Error {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return apperrors.UpstreamError(upstream.Service+" request failed", err).
			WithDetails(upstream.Body).
			WithContext("service", upstream.Service).
			WithContext("upstream_status", upstream.StatusCode)
	}

	var malformed *domain.MalformedResponseError
	if errors.As(err, &malformed) {
		e := apperrors.MalformedError("unexpected response shape", err).
			WithDetails(string(malformed.Payload)).
			WithContext("reason", malformed.Reason)
		if malformed.Service != "" {
			e.WithContext("service", malformed.Service)
		}
		return e
	}

	switch {
	case errors.Is(err, domain.ErrNoCandidates):
		return apperrors.NoCandidatesError("no suggestion generated", err).WithDetails(err.Error())
	case errors.Is(err, domain.ErrInvalidFeedback):
		return apperrors.ValidationError(err.Error())
	}

	return apperrors.AsStructuredError(err)
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Not found", attrs...)
	case apperrors.TypeUpstream, apperrors.TypeMalformed, apperrors.TypeNoCandidates:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		if err.Details != "" {
			attrs = append(attrs, "details", err.Details)
		}
		slog.ErrorContext(ctx, "Collaborator error", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

func WrapHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message := http.StatusText(httpErr.Code)
	if msg, ok := httpErr.Message.(string); ok && msg != "" {
		message = msg
	}

	var err *apperrors.Error
	switch httpErr.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		err = apperrors.ValidationError(message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		err = apperrors.NotFoundError(message)
	default:
		err = apperrors.InternalError(message, nil)
	}

	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}
	return err
}
