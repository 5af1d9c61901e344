package correlation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/google/uuid"
)

type contextKey struct{}

// Connection identifies one relay connection in log records.
type Connection struct {
	ID      string
	Channel string
	Role    domain.Role
}

// NewConnection returns a connection scope with a fresh random ID.
func NewConnection(channel string, role domain.Role) Connection {
	return Connection{ID: uuid.NewString(), Channel: channel, Role: role}
}

// WithConnection returns a new context carrying the given connection scope.
func WithConnection(ctx context.Context, conn Connection) context.Context {
	return context.WithValue(ctx, contextKey{}, conn)
}

// FromContext extracts the connection scope from ctx, returning false if not present.
func FromContext(ctx context.Context) (Connection, bool) {
	conn, ok := ctx.Value(contextKey{}).(Connection)
	return conn, ok && conn.ID != ""
}

// Handler wraps an existing slog.Handler to inject "conn_id", "channel" and
// "role" attributes when the context carries a connection scope.
type Handler struct {
	inner slog.Handler
}

// NewHandler creates a connection-aware handler wrapping the given handler.
func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if conn, ok := FromContext(ctx); ok {
		r.AddAttrs(
			slog.String("conn_id", conn.ID),
			slog.String("channel", conn.Channel),
			slog.String("role", string(conn.Role)),
		)
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
