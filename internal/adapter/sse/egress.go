// Package sse streams a channel's messages to subscribers as server-sent
// events.
package sse

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/broadcast"
	"github.com/Jelka-FMF/Veter/internal/channel"
	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/Jelka-FMF/Veter/internal/platform/correlation"
	apperrors "github.com/Jelka-FMF/Veter/internal/platform/errors"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const (
	DefaultPadding   = 2048
	DefaultKeepAlive = 15 * time.Second
)

// EgressOptions configures subscriber streams.
type EgressOptions struct {
	// Padding is the size of the comment sent before the first event so
	// buffering proxies flush the response. Zero disables it.
	Padding int
	// KeepAlive is the interval of empty comments on an idle stream.
	KeepAlive time.Duration
}

// Egress serves subscriber streams.
type Egress struct {
	tracker   domain.ConnectionTracker
	metrics   *metrics.ChannelMetrics
	clock     clockwork.Clock
	padding   string
	keepAlive time.Duration
}

// NewEgress creates the subscriber-side adapter.
func NewEgress(tracker domain.ConnectionTracker, channelMetrics *metrics.ChannelMetrics, clock clockwork.Clock, opts EgressOptions) *Egress {
	keepAlive := opts.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	return &Egress{
		tracker:   tracker,
		metrics:   channelMetrics,
		clock:     clock,
		padding:   strings.Repeat(" ", max(opts.Padding, 0)),
		keepAlive: keepAlive,
	}
}

// Handler returns the stream endpoint for ch.
func (e *Egress) Handler(ch *channel.Channel) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		if ch.Outbound != nil {
			if err := ch.Outbound.Check(req.Header); err != nil {
				slog.Info("Subscriber rejected", "channel", ch.Name, "header", ch.Outbound.Header(), "remote_addr", c.RealIP())
				return apperrors.InvalidToken().WithField("channel", ch.Name)
			}
		}

		ctx := correlation.WithConnection(req.Context(), correlation.NewConnection(ch.Name, domain.RoleSubscriber))
		guard := e.tracker.Acquire(ch.Name, domain.RoleSubscriber)
		defer guard.Release()

		// Subscribe before the response starts so nothing published after the
		// client sees 200 is missed.
		sub := ch.Bus.Subscribe()
		defer sub.Close()

		res := c.Response()
		if err := http.NewResponseController(res.Writer).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			slog.WarnContext(ctx, "Could not disable write deadline", "error", err)
		}

		header := res.Header()
		header.Set(echo.HeaderContentType, "text/event-stream")
		header.Set(echo.HeaderCacheControl, "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		res.WriteHeader(http.StatusOK)

		slog.InfoContext(ctx, "Subscriber connected", "remote_addr", c.RealIP())
		defer slog.InfoContext(ctx, "Subscriber disconnected")

		ew := newEventWriter(res)
		if e.padding != "" {
			if err := ew.comment(e.padding); err != nil {
				return nil
			}
		}
		res.Flush()

		ticker := e.clock.NewTicker(e.keepAlive)
		defer ticker.Stop()

		sent := e.metrics.MessagesSent.WithLabelValues(ch.Name)

		for {
			msg, wake, err := sub.Poll()

			var lagErr *broadcast.LagError
			switch {
			case err == nil:
				sent.Inc()
				if err := ew.data(msg); err != nil {
					slog.DebugContext(ctx, "Subscriber write failed", "error", err)
					return nil
				}
				continue
			case errors.As(err, &lagErr):
				slog.WarnContext(ctx, "Subscriber lagged", "skipped", lagErr.Skipped)
				e.metrics.RecordLag(ch.Name, lagErr.Skipped)
				continue
			case errors.Is(err, broadcast.ErrClosed):
				res.Flush()
				return nil
			}

			// Caught up: push buffered events out before waiting.
			res.Flush()

			select {
			case <-wake:
			case <-ticker.Chan():
				if err := ew.comment(""); err != nil {
					slog.DebugContext(ctx, "Subscriber write failed", "error", err)
					return nil
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}
