package metrics

import (
	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// ConnectionMetrics holds the active-connection gauges and connect/disconnect
// counters, one pair per role.
type ConnectionMetrics struct {
	PublishersActive  *prometheus.GaugeVec
	PublishersTotal   *prometheus.CounterVec
	SubscribersActive *prometheus.GaugeVec
	SubscribersTotal  *prometheus.CounterVec
}

// NewConnectionMetrics creates and registers connection metrics on the given registry.
func NewConnectionMetrics(reg prometheus.Registerer) *ConnectionMetrics {
	m := &ConnectionMetrics{
		PublishersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publishers_active",
			Help:      "Number of active publisher connections.",
		}, []string{"channel"}),
		PublishersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishers_total",
			Help:      "Total number of publisher connection events, by status.",
		}, []string{"channel", "status"}),
		SubscribersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers_active",
			Help:      "Number of active subscriber connections.",
		}, []string{"channel"}),
		SubscribersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_total",
			Help:      "Total number of subscriber connection events, by status.",
		}, []string{"channel", "status"}),
	}

	reg.MustRegister(m.PublishersActive, m.PublishersTotal, m.SubscribersActive, m.SubscribersTotal)
	return m
}

// Active returns the active gauge for a role.
func (m *ConnectionMetrics) Active(role domain.Role) *prometheus.GaugeVec {
	if role == domain.RolePublisher {
		return m.PublishersActive
	}
	return m.SubscribersActive
}

// Total returns the connect/disconnect counter for a role.
func (m *ConnectionMetrics) Total(role domain.Role) *prometheus.CounterVec {
	if role == domain.RolePublisher {
		return m.PublishersTotal
	}
	return m.SubscribersTotal
}

// Init creates zero-valued series for a channel so dashboards see it before
// the first connection.
func (m *ConnectionMetrics) Init(channel string) {
	for _, role := range domain.Roles {
		m.Active(role).WithLabelValues(channel).Set(0)
		m.Total(role).WithLabelValues(channel, StatusConnected)
		m.Total(role).WithLabelValues(channel, StatusDisconnected)
	}
}
