package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	SessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minder_sessions_total",
			Help: "Total number of accepted client connections",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minder_active_sessions",
			Help: "Number of sessions currently being handled",
		},
	)

	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minder_auth_attempts_total",
			Help: "Authentication attempts by result",
		},
		[]string{"result"},
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minder_session_duration_seconds",
			Help:    "Session duration from accept to close in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Command metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minder_commands_total",
			Help: "Dispatched commands by action and response status",
		},
		[]string{"action", "status"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minder_command_duration_seconds",
			Help:    "Command dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// Host metrics, refreshed by the Collector
	UptimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minder_uptime_seconds",
			Help: "Host uptime in seconds",
		},
	)

	UptimePercentage7d = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minder_uptime_percentage_7d",
			Help: "Share of the trailing seven days the host was up",
		},
	)

	BootRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minder_boot_records",
			Help: "Number of boots in the history store",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(AuthAttemptsTotal)
	prometheus.MustRegister(SessionDuration)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(UptimeSeconds)
	prometheus.MustRegister(UptimePercentage7d)
	prometheus.MustRegister(BootRecords)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
