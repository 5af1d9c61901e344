// Package websocket accepts publisher connections over WebSocket and feeds
// their text frames into a channel's bus.
package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/channel"
	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/Jelka-FMF/Veter/internal/platform/correlation"
	apperrors "github.com/Jelka-FMF/Veter/internal/platform/errors"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeDeadline         = 5 * time.Second
	shutdownReason        = "Server shutting down"
	defaultMaxMessageSize = 1 << 20
)

// IngressOptions configures publisher connections.
type IngressOptions struct {
	// AllowedOrigins restricts browser origins; empty accepts any.
	AllowedOrigins []string
	// MaxMessageSize caps a single inbound frame in bytes.
	MaxMessageSize int64
}

// Ingress upgrades publisher requests and relays their frames. It keeps a set
// of live connections so they can be closed with a reason on shutdown.
type Ingress struct {
	tracker        domain.ConnectionTracker
	metrics        *metrics.ChannelMetrics
	upgrader       websocket.Upgrader
	maxMessageSize int64

	mutex       sync.Mutex
	connections map[*publisher]struct{}
}

type publisher struct {
	connection *websocket.Conn
	closeOnce  sync.Once
}

// NewIngress creates the publisher-side adapter.
func NewIngress(tracker domain.ConnectionTracker, channelMetrics *metrics.ChannelMetrics, opts IngressOptions) *Ingress {
	maxSize := opts.MaxMessageSize
	if maxSize <= 0 {
		maxSize = defaultMaxMessageSize
	}

	return &Ingress{
		tracker: tracker,
		metrics: channelMetrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(opts.AllowedOrigins),
		},
		maxMessageSize: maxSize,
		connections:    make(map[*publisher]struct{}),
	}
}

// Handler returns the push endpoint for ch.
func (i *Ingress) Handler(ch *channel.Channel) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		var responseHeader http.Header
		if ch.Inbound != nil {
			if err := ch.Inbound.Check(req.Header); err != nil {
				slog.Info("Publisher rejected", "channel", ch.Name, "header", ch.Inbound.Header(), "remote_addr", c.RealIP())
				return apperrors.InvalidToken().WithField("channel", ch.Name)
			}
			// Browsers fail the handshake unless the offered subprotocol is selected.
			responseHeader = http.Header{}
			responseHeader.Set(ch.Inbound.Header(), req.Header.Get(ch.Inbound.Header()))
		}

		connection, err := i.upgrader.Upgrade(c.Response(), req, responseHeader)
		if err != nil {
			// The upgrader has already written the error response.
			slog.Debug("WebSocket upgrade failed", "channel", ch.Name, "error", err)
			return nil
		}

		ctx := correlation.WithConnection(req.Context(), correlation.NewConnection(ch.Name, domain.RolePublisher))
		guard := i.tracker.Acquire(ch.Name, domain.RolePublisher)
		defer guard.Release()

		p := &publisher{connection: connection}
		i.add(p)
		defer i.remove(p)
		defer p.close()

		slog.InfoContext(ctx, "Publisher connected", "remote_addr", c.RealIP())

		connection.SetReadLimit(i.maxMessageSize)
		received := i.metrics.MessagesReceived.WithLabelValues(ch.Name)

		for {
			messageType, data, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					slog.WarnContext(ctx, "Publisher closed unexpectedly", "error", err)
				} else {
					slog.DebugContext(ctx, "Publisher read ended", "error", err)
				}
				break
			}

			if messageType != websocket.TextMessage {
				slog.DebugContext(ctx, "Skipping non-text frame", "type", messageType)
				continue
			}
			if !utf8.Valid(data) {
				slog.DebugContext(ctx, "Skipping frame with invalid UTF-8")
				continue
			}

			received.Inc()
			ch.Bus.Publish(string(data))
		}

		slog.InfoContext(ctx, "Publisher disconnected")
		return nil
	}
}

// Shutdown sends a close frame to every live publisher and closes its
// connection. Hijacked connections are not covered by http.Server.Shutdown.
func (i *Ingress) Shutdown() {
	i.mutex.Lock()
	publishers := make([]*publisher, 0, len(i.connections))
	for p := range i.connections {
		publishers = append(publishers, p)
	}
	i.mutex.Unlock()

	for _, p := range publishers {
		p.closeGraceful(shutdownReason)
	}

	if len(publishers) > 0 {
		slog.Info("Publishers closed", "count", len(publishers))
	}
}

// Connections returns the number of live publisher connections.
func (i *Ingress) Connections() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return len(i.connections)
}

func (i *Ingress) add(p *publisher) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.connections[p] = struct{}{}
}

func (i *Ingress) remove(p *publisher) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	delete(i.connections, p)
}

func (p *publisher) close() {
	p.closeOnce.Do(func() {
		_ = p.connection.Close()
	})
}

// closeGraceful sends a close frame with reason before closing. The read loop
// is the only other user of the connection and WriteControl may run
// concurrently with it.
func (p *publisher) closeGraceful(reason string) {
	p.closeOnce.Do(func() {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = p.connection.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeDeadline))
		_ = p.connection.Close()
	})
}
