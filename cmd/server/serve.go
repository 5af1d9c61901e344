package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jelka-FMF/Veter/internal/adapter/httpserver"
	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/adapter/sse"
	"github.com/Jelka-FMF/Veter/internal/adapter/websocket"
	"github.com/Jelka-FMF/Veter/internal/channel"
	"github.com/Jelka-FMF/Veter/internal/lifecycle"
	"github.com/Jelka-FMF/Veter/internal/platform/config"
	"github.com/Jelka-FMF/Veter/internal/platform/logging"
	"github.com/Jelka-FMF/Veter/internal/platform/version"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "version", version.Version, "address", cfg.ListenAddr())

	clock := clockwork.NewRealClock()
	reg := metrics.NewRegistry()
	metrics.NewAppMetrics(reg, clock)
	connectionMetrics := metrics.NewConnectionMetrics(reg)
	channelMetrics := metrics.NewChannelMetrics(reg)

	channels, err := channel.NewRegistry(cfg.Token, channel.DefaultSpecs(cfg.ChannelCapacity))
	if err != nil {
		return fmt.Errorf("failed to create channels: %w", err)
	}
	for _, ch := range channels.Channels() {
		connectionMetrics.Init(ch.Name)
		channelMetrics.Init(ch.Name)
		slog.Info("Channel registered", "channel", ch.Name, "capacity", ch.Bus.Capacity(),
			"inbound_auth", ch.Inbound != nil, "outbound_auth", ch.Outbound != nil)
	}

	tracker := lifecycle.NewTracker(connectionMetrics)
	ingress := websocket.NewIngress(tracker, channelMetrics, websocket.IngressOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxMessageSize: cfg.WSMaxMessageSize,
	})
	egress := sse.NewEgress(tracker, channelMetrics, clock, sse.EgressOptions{
		Padding:   cfg.SSEPadding,
		KeepAlive: cfg.SSEKeepAlive,
	})

	srv := httpserver.NewServer(httpserver.Options{
		Address:        cfg.ListenAddr(),
		ConnectRate:    cfg.ConnectRate,
		ConnectBurst:   cfg.ConnectBurst,
		MaxConnections: cfg.MaxConnections,
	}, channels, ingress, egress, reg, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		// Streams end once their bus drains, publishers on their close frame.
		channels.Close()
		ingress.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		return err
	}

	slog.Info("Server stopped")
	return nil
}
