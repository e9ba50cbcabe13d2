/*
Package sysinfo collects the live host report served by get_system_info.

The report covers uptime, a seven-day uptime percentage, RAM, CPU, root
filesystem usage, kernel version, and distribution name. All metrics come
from gopsutil; the boot history store contributes fallback data for the
uptime percentage. Field names and formats are frozen: deployed clients
parse the JSON literally.

# Architecture

	┌──────────────────── SYSTEM INFO PROVIDER ──────────────────┐
	│                                                              │
	│  Snapshot(ctx)                                               │
	│  ┌────────────────────────────────────────────┐             │
	│  │  gopsutil host  → hostname, boot time,      │             │
	│  │                   kernel, platform          │             │
	│  │  gopsutil mem   → total/available/percent   │             │
	│  │  gopsutil cpu   → usage sample, count       │             │
	│  │  gopsutil disk  → root filesystem usage     │             │
	│  │  /etc/os-release→ PRETTY_NAME               │             │
	│  │  boot history   → uptime fallback           │             │
	│  └──────────────────┬─────────────────────────┘             │
	│                     ▼                                        │
	│  ┌────────────────────────────────────────────┐             │
	│  │  Snapshot (JSON-ready, string formatted)    │             │
	│  └────────────────────────────────────────────┘             │
	└────────────────────────────────────────────────────────────┘

# Report Shape

	{
	  "hostname": "web-01",
	  "uptime_string": "123h 45m",
	  "uptime_percentage_last_7_days": "99.87%",
	  "ram_usage": {"total_gb": "15.50", "available_gb": "9.21", "percent_used": "40.59%"},
	  "cpu_usage_percent": "12.34%",
	  "cpu_count": 8,
	  "disk_usage_root": {"total_gb": "457.38", "used_gb": "112.04",
	                      "free_gb": "345.34", "percent_used": "24.50%"},
	  "kernel_version": "6.8.0-45-generic",
	  "distro_name": "Ubuntu 24.04.1 LTS"
	}

Gigabyte figures are strings with two decimals (1 GB = 2^30 bytes);
percentages are strings with two decimals and a trailing %.

# Behavior Notes

CPU Sampling:
  - Snapshot blocks for the sample interval (1s by default)
  - Only the calling session waits; other sessions are unaffected
  - Tests shorten the interval via NewProvider

Uptime Percentage:
  - min(now - bootTime, 7d) / 7d, as a percentage in [0,100]
  - Boot at or before the window start reports 100%
  - History is a fallback boot-time source, nothing more: recorded boots
    carry no shutdown times

Degradation:
  - kernel_version and distro_name fall back to "N/A"
  - A broken boot history store logs a warning and is ignored
  - Any other collection failure fails the whole Snapshot call

# Usage

	provider := sysinfo.NewProvider(store, 0) // 0 = default 1s CPU sample

	snap, err := provider.Snapshot(ctx)
	if err != nil {
		// session answers with a generic server error
	}
	resp := protocol.SuccessData(snap)

Recording the current boot at daemon startup:

	boot, err := sysinfo.BootTime(ctx)
	if err == nil {
		store.RecordBoot(boot)
	}

# Integration Points

  - pkg/server: Calls Snapshot for the get_system_info action
  - pkg/storage: Supplies boot history
  - cmd/minder: Records the current boot time at startup

# See Also

  - gopsutil: https://github.com/shirou/gopsutil
  - os-release(5): https://www.freedesktop.org/software/systemd/man/os-release.html
*/
package sysinfo
