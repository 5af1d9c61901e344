package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/channel"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// ChannelHandlers builds the per-channel endpoints.
type ChannelHandlers interface {
	Handler(ch *channel.Channel) echo.HandlerFunc
}

// Options tunes the HTTP surface.
type Options struct {
	Address string
	// ConnectRate is the per-IP rate of new stream and push connections per
	// second. Zero disables rate limiting.
	ConnectRate  float64
	ConnectBurst int
	// MaxConnections caps concurrent stream and push connections. Zero
	// disables the cap.
	MaxConnections int64
}

type Server struct {
	echo    *echo.Echo
	options Options
	clock   clockwork.Clock

	channels *channel.Registry
	ingress  ChannelHandlers
	egress   ChannelHandlers

	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics
	limiter     *ConnectionLimiter

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(opts Options, channels *channel.Registry, ingress, egress ChannelHandlers, reg *prometheus.Registry, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		options:      opts,
		clock:        clock,
		channels:     channels,
		ingress:      ingress,
		egress:       egress,
		registry:     reg,
		httpMetrics:  metrics.NewHTTPMetrics(reg),
		healthChecks: channelHealthChecks(channels),
		startTime:    clock.Now(),
	}
	if opts.MaxConnections > 0 {
		srv.limiter = NewConnectionLimiter(opts.MaxConnections)
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "address", s.options.Address)
	if err := s.echo.Start(s.options.Address); err != nil {
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

func channelHealthChecks(channels *channel.Registry) []HealthCheck {
	var checks []HealthCheck
	for _, ch := range channels.Channels() {
		bus := ch.Bus
		checks = append(checks, HealthCheck{
			Name: "channel:" + ch.Name,
			Check: func(context.Context) error {
				if bus.Closed() {
					return errBusClosed
				}
				return nil
			},
		})
	}
	return checks
}
