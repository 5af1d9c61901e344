package httpserver

import (
	"testing"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/adapter/sse"
	"github.com/Jelka-FMF/Veter/internal/adapter/websocket"
	"github.com/Jelka-FMF/Veter/internal/channel"
	"github.com/Jelka-FMF/Veter/internal/lifecycle"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

type testServer struct {
	*Server
	channels *channel.Registry
	tracker  *lifecycle.Tracker
	ingress  *websocket.Ingress
	clock    *clockwork.FakeClock
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	clock := clockwork.NewFakeClock()

	channels, err := channel.NewRegistry(testToken, channel.DefaultSpecs(16))
	require.NoError(t, err)

	tracker := lifecycle.NewTracker(metrics.NewConnectionMetrics(reg))
	channelMetrics := metrics.NewChannelMetrics(reg)
	ingress := websocket.NewIngress(tracker, channelMetrics, websocket.IngressOptions{})
	egress := sse.NewEgress(tracker, channelMetrics, clock, sse.EgressOptions{Padding: sse.DefaultPadding})

	srv := NewServer(opts, channels, ingress, egress, reg, clock)
	t.Cleanup(func() {
		ingress.Shutdown()
		channels.Close()
	})

	return &testServer{Server: srv, channels: channels, tracker: tracker, ingress: ingress, clock: clock, registry: reg}
}
