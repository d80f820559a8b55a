// Package correlation ties log lines to the request that produced them. The
// ID travels in X-Request-ID on both request and response and is logged as
// request_id.
package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	// HeaderName is the request/response header carrying the ID.
	HeaderName = "X-Request-ID"
	// LogKey is the attribute name request IDs are logged under.
	LogKey = "request_id"

	maxInboundIDLength = 64
)

type contextKey struct{}

// NewID mints a request ID.
func NewID() string {
	return uuid.NewString()
}

// FromInbound keeps a caller-supplied ID when it is safe to echo into headers
// and logs (1-64 characters of [A-Za-z0-9_-]) and mints a new one otherwise.
func FromInbound(id string) string {
	if id == "" || len(id) > maxInboundIDLength || strings.IndexFunc(id, unsafeIDRune) >= 0 {
		return NewID()
	}
	return id
}

func unsafeIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return false
	}
	return true
}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID returns the request ID stored in ctx, if any.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Handler is a slog.Handler that stamps request_id on records logged with a
// request context.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String(LogKey, id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("request id handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
