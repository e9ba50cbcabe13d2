/*
Package metrics provides Prometheus metrics collection and exposition for Minder.

The metrics package defines and registers all Minder metrics using the Prometheus
client library, providing observability into session throughput, authentication
outcomes, command latency, and host uptime. Metrics are exposed via HTTP endpoint
for scraping by Prometheus servers, alongside health and readiness probes.

# Architecture

Minder's metrics system follows Prometheus best practices:

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │          Prometheus Registry               │           │
	│  │  - Global DefaultRegistry                  │           │
	│  │  - MustRegister at package init            │           │
	│  │  - Automatic Go runtime metrics            │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │              Metric Types                  │           │
	│  │                                             │          │
	│  │  Gauge: Instant values (active sessions)   │           │
	│  │  Counter: Monotonic increases (sessions)   │           │
	│  │  Histogram: Distributions (latency)        │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Metric Categories                │           │
	│  │                                             │          │
	│  │  Sessions: Count, active, duration         │           │
	│  │  Auth: Attempts by result                  │           │
	│  │  Commands: Count, duration by action       │           │
	│  │  Host: Uptime, 7d availability, boots      │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          HTTP Metrics Endpoint             │           │
	│  │  - Path: /metrics                          │           │
	│  │  - Format: Prometheus text exposition      │           │
	│  │  - Handler: promhttp.Handler()             │           │
	│  │  - Probes: /health and /ready              │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Automatic collection of Go runtime metrics
  - Thread-safe for concurrent updates

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

Host Collector:
  - Background goroutine refreshing host gauges
  - Samples boot time and boot history every 15s
  - Feeds uptime and 7-day availability gauges

Probe Server:
  - Serves /metrics, /health, and /ready
  - Readiness gated on critical components
  - Graceful shutdown via Stop

# Metrics Catalog

Session Metrics:

minder_sessions_total:
  - Type: Counter
  - Description: Total client connections accepted
  - Example: minder_sessions_total 1042

minder_active_sessions:
  - Type: Gauge
  - Description: Client sessions currently open
  - Example: minder_active_sessions 3

minder_session_duration_seconds:
  - Type: Histogram
  - Description: Session lifetime from accept to close
  - Buckets: Default Prometheus buckets

Authentication Metrics:

minder_auth_attempts_total{result}:
  - Type: Counter
  - Description: Authentication attempts by result (success/failure)
  - Labels: result
  - Example: minder_auth_attempts_total{result="failure"} 17

Command Metrics:

minder_commands_total{action, status}:
  - Type: Counter
  - Description: Dispatched commands by action and outcome
  - Labels: action, status
  - Example: minder_commands_total{action="get_system_info",status="success"} 512

minder_command_duration_seconds{action}:
  - Type: Histogram
  - Description: Command execution duration by action
  - Labels: action
  - Buckets: Default Prometheus buckets

Host Metrics:

minder_uptime_seconds:
  - Type: Gauge
  - Description: Seconds since the host last booted
  - Example: minder_uptime_seconds 86400

minder_uptime_percentage_7d:
  - Type: Gauge
  - Description: Host availability over the trailing 7 days (0-100)
  - Example: minder_uptime_percentage_7d 99.87

minder_boot_records:
  - Type: Gauge
  - Description: Boot events retained in the boot history store
  - Example: minder_boot_records 12

# Usage

Updating Counter and Gauge Metrics:

	import "github.com/cuemby/minder/pkg/metrics"

	metrics.SessionsTotal.Inc()
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

Recording Histogram Observations:

	timer := metrics.NewTimer()
	// ... execute command ...
	timer.ObserveDurationVec(metrics.CommandDuration, "reboot")

Serving the Endpoint:

	srv := metrics.NewServer()
	go srv.Start(":9090")
	defer srv.Stop(context.Background())

# Integration Points

This package integrates with:

  - pkg/server: Session, auth, and command instrumentation
  - pkg/sysinfo: Host uptime sampling via the collector
  - pkg/storage: Boot history counts via the collector
  - Prometheus: Scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()
  - No runtime registration needed

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Actions and results are fixed, small sets
  - Never label by session ID or peer address

Timer Pattern:
  - Create timer at operation start
  - Defer or explicitly call ObserveDuration
  - Automatically calculates elapsed time
  - Supports both simple and vector histograms

# Monitoring

Prometheus Queries (PromQL):

Session Health:
  - Connection rate: rate(minder_sessions_total[5m])
  - Open sessions: minder_active_sessions
  - p95 session lifetime: histogram_quantile(0.95, minder_session_duration_seconds_bucket)

Authentication:
  - Failure rate: rate(minder_auth_attempts_total{result="failure"}[5m])
  - Success ratio: rate(minder_auth_attempts_total{result="success"}[5m]) /
    rate(minder_auth_attempts_total[5m])

Commands:
  - Command rate: rate(minder_commands_total[5m])
  - Error rate: rate(minder_commands_total{status="error"}[5m])
  - p95 latency: histogram_quantile(0.95, minder_command_duration_seconds_bucket)

Host Availability:
  - Current uptime: minder_uptime_seconds
  - 7-day availability: minder_uptime_percentage_7d
  - Recent reboot: resets of minder_uptime_seconds

# Alerting Rules

Recommended Prometheus alerts:

Authentication Failures:
  - Alert: rate(minder_auth_attempts_total{result="failure"}[5m]) > 0.5
  - Description: Sustained password failures against the daemon
  - Action: Check source addresses in the audit log

Host Rebooted:
  - Alert: minder_uptime_seconds < 300
  - Description: Host booted within the last five minutes
  - Action: Confirm the reboot was an issued command

Low Availability:
  - Alert: minder_uptime_percentage_7d < 99
  - Description: Host availability dropped below 99% over 7 days
  - Action: Review boot history and hardware health

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
