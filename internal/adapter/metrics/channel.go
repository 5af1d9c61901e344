package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChannelMetrics holds per-channel message flow and subscriber lag metrics.
type ChannelMetrics struct {
	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	LagEvents        *prometheus.CounterVec
	LagMessages      *prometheus.CounterVec
}

// NewChannelMetrics creates and registers channel metrics on the given registry.
func NewChannelMetrics(reg prometheus.Registerer) *ChannelMetrics {
	m := &ChannelMetrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "messages_received_total",
			Help:      "Total number of messages received from publishers.",
		}, []string{"channel"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent to subscribers.",
		}, []string{"channel"}),
		LagEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "client_lag_events_total",
			Help:      "Total number of client lag events.",
		}, []string{"channel"}),
		LagMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "client_lag_messages_total",
			Help:      "Total number of messages lost due to client lag.",
		}, []string{"channel"}),
	}

	reg.MustRegister(m.MessagesReceived, m.MessagesSent, m.LagEvents, m.LagMessages)
	return m
}

// Init creates zero-valued series for a channel.
func (m *ChannelMetrics) Init(channel string) {
	m.MessagesReceived.WithLabelValues(channel)
	m.MessagesSent.WithLabelValues(channel)
	m.LagEvents.WithLabelValues(channel)
	m.LagMessages.WithLabelValues(channel)
}

// RecordLag counts one lag event that skipped the given number of messages.
func (m *ChannelMetrics) RecordLag(channel string, skipped uint64) {
	m.LagEvents.WithLabelValues(channel).Inc()
	m.LagMessages.WithLabelValues(channel).Add(float64(skipped))
}
