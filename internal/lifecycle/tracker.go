// Package lifecycle tracks relay connections from acquisition to release and
// mirrors their lifetimes into the connection metrics.
package lifecycle

import (
	"sync"

	"github.com/Jelka-FMF/Veter/internal/adapter/metrics"
	"github.com/Jelka-FMF/Veter/internal/domain"
	dto "github.com/prometheus/client_model/go"
)

// Tracker hands out connection guards. Every Acquire is paired with exactly
// one effective Release, so for each (channel, role):
//
//	connected - disconnected == active >= 0
type Tracker struct {
	metrics *metrics.ConnectionMetrics
}

// NewTracker creates a tracker reporting into m.
func NewTracker(m *metrics.ConnectionMetrics) *Tracker {
	return &Tracker{metrics: m}
}

var _ domain.ConnectionTracker = (*Tracker)(nil)

// Acquire marks a connection as active on channel.
func (t *Tracker) Acquire(channel string, role domain.Role) domain.ConnectionGuard {
	t.metrics.Active(role).WithLabelValues(channel).Inc()
	t.metrics.Total(role).WithLabelValues(channel, metrics.StatusConnected).Inc()

	return &Guard{tracker: t, channel: channel, role: role}
}

// Active returns the current number of active connections for channel and role.
func (t *Tracker) Active(channel string, role domain.Role) int64 {
	var m dto.Metric
	if err := t.metrics.Active(role).WithLabelValues(channel).Write(&m); err != nil {
		return 0
	}
	return int64(m.GetGauge().GetValue())
}

// Guard is one tracked connection.
type Guard struct {
	tracker *Tracker
	channel string
	role    domain.Role
	once    sync.Once
}

// Release marks the connection as gone. Only the first call counts.
func (g *Guard) Release() {
	g.once.Do(func() {
		m := g.tracker.metrics
		m.Active(g.role).WithLabelValues(g.channel).Dec()
		m.Total(g.role).WithLabelValues(g.channel, metrics.StatusDisconnected).Inc()
	})
}

// Channel returns the channel the guard was acquired on.
func (g *Guard) Channel() string { return g.channel }

// Role returns the role the guard was acquired for.
func (g *Guard) Role() domain.Role { return g.role }
