package sysinfo

import (
	"fmt"
	"time"
)

// uptimeWindow is the period the uptime percentage is computed over.
const uptimeWindow = 7 * 24 * time.Hour

// FormatUptime renders an uptime as total hours and minutes, "123h 45m".
// Negative durations render as "0h 0m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
}

// UptimePercentage returns the share of the trailing seven days the host
// has been up, in [0,100]. Only the current boot contributes: recorded
// boots have unknown shutdown times, so history serves solely as a
// fallback when the current boot time is unavailable.
func UptimePercentage(now, bootTime time.Time, history []time.Time) float64 {
	if bootTime.IsZero() && len(history) > 0 {
		bootTime = history[len(history)-1]
	}
	if bootTime.IsZero() {
		return 0
	}

	up := now.Sub(bootTime)
	if up < 0 {
		up = 0
	}
	if up > uptimeWindow {
		up = uptimeWindow
	}

	return float64(up) / float64(uptimeWindow) * 100
}
