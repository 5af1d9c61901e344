package metrics

import (
	"github.com/Jelka-FMF/Veter/internal/platform/version"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// AppMetrics holds process-level metrics.
type AppMetrics struct {
	Uptime    prometheus.GaugeFunc
	BuildInfo *prometheus.GaugeVec
}

// NewAppMetrics registers the uptime gauge, measured from the moment of the
// call on the given clock, and the build info gauge.
func NewAppMetrics(reg prometheus.Registerer, clock clockwork.Clock) *AppMetrics {
	start := clock.Now()

	m := &AppMetrics{
		Uptime: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "app",
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds.",
		}, func() float64 {
			return clock.Since(start).Seconds()
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information with version, commit, build_time and go_version labels (value is always 1).",
		}, []string{"version", "commit", "build_time", "go_version"}),
	}

	info := version.Get()
	m.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	reg.MustRegister(m.Uptime, m.BuildInfo)
	return m
}
