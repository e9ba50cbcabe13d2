package sysinfo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/cuemby/minder/pkg/log"
	"github.com/cuemby/minder/pkg/storage"
)

// DefaultSampleInterval is how long Snapshot samples CPU usage. The call
// blocks its session for the full interval.
const DefaultSampleInterval = time.Second

// Snapshot is the data payload returned for get_system_info. Field names
// and string formats match the report deployed clients already parse.
type Snapshot struct {
	Hostname                  string    `json:"hostname"`
	UptimeString              string    `json:"uptime_string"`
	UptimePercentageLast7Days string    `json:"uptime_percentage_last_7_days"`
	RAMUsage                  RAMUsage  `json:"ram_usage"`
	CPUUsagePercent           string    `json:"cpu_usage_percent"`
	CPUCount                  int       `json:"cpu_count"`
	DiskUsageRoot             DiskUsage `json:"disk_usage_root"`
	KernelVersion             string    `json:"kernel_version"`
	DistroName                string    `json:"distro_name"`
}

// RAMUsage mirrors the ram_usage object. Gigabyte figures are strings
// with two decimals, 1 GB = 2^30 bytes.
type RAMUsage struct {
	TotalGB     string `json:"total_gb"`
	AvailableGB string `json:"available_gb"`
	PercentUsed string `json:"percent_used"`
}

// DiskUsage mirrors the disk_usage_root object.
type DiskUsage struct {
	TotalGB     string `json:"total_gb"`
	UsedGB      string `json:"used_gb"`
	FreeGB      string `json:"free_gb"`
	PercentUsed string `json:"percent_used"`
}

// Provider collects live host metrics. Collection is synchronous; the CPU
// sample blocks the calling session for the sample interval and nothing
// else.
type Provider struct {
	store          storage.Store
	sampleInterval time.Duration
}

// NewProvider returns a provider reading boot history from store (may be
// nil). A zero interval uses DefaultSampleInterval.
func NewProvider(store storage.Store, interval time.Duration) *Provider {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Provider{store: store, sampleInterval: interval}
}

// Snapshot gathers the full system report. Metric collection failures are
// returned as errors; only kernel and distro identification degrade to
// "N/A".
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect host info: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect memory usage: %w", err)
	}

	cpuPercents, err := cpu.PercentWithContext(ctx, p.sampleInterval, false)
	if err != nil {
		return nil, fmt.Errorf("sample cpu usage: %w", err)
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	cpuCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count cpus: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("collect disk usage: %w", err)
	}

	now := time.Now()
	bootTime := time.Unix(int64(hostInfo.BootTime), 0)

	// Boot history is best-effort: a missing or unreadable store must not
	// fail the whole report.
	var history []time.Time
	if p.store != nil {
		history, err = p.store.BootTimes()
		if err != nil {
			logger := log.WithComponent("sysinfo")
			logger.Warn().Err(err).Msg("Failed to load boot history")
			history = nil
		}
	}

	return &Snapshot{
		Hostname:                  hostInfo.Hostname,
		UptimeString:              FormatUptime(now.Sub(bootTime)),
		UptimePercentageLast7Days: pctString(UptimePercentage(now, bootTime, history)),
		RAMUsage: RAMUsage{
			TotalGB:     gbString(vm.Total),
			AvailableGB: gbString(vm.Available),
			PercentUsed: pctString(vm.UsedPercent),
		},
		CPUUsagePercent: pctString(cpuPercent),
		CPUCount:        cpuCount,
		DiskUsageRoot: DiskUsage{
			TotalGB:     gbString(du.Total),
			UsedGB:      gbString(du.Used),
			FreeGB:      gbString(du.Free),
			PercentUsed: pctString(du.UsedPercent),
		},
		KernelVersion: orNA(hostInfo.KernelVersion),
		DistroName:    distroName(hostInfo),
	}, nil
}

// BootTime returns the host's kernel boot time.
func BootTime(ctx context.Context) (time.Time, error) {
	ts, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("read boot time: %w", err)
	}
	return time.Unix(int64(ts), 0), nil
}

// distroName returns the human-readable distribution name. PRETTY_NAME
// from /etc/os-release wins; the gopsutil platform fields are the
// fallback.
func distroName(hostInfo *host.InfoStat) string {
	if name := prettyName("/etc/os-release"); name != "" {
		return name
	}
	if hostInfo.Platform != "" {
		if hostInfo.PlatformVersion != "" {
			return hostInfo.Platform + " " + hostInfo.PlatformVersion
		}
		return hostInfo.Platform
	}
	return "N/A"
}

// prettyName extracts PRETTY_NAME from an os-release file. Returns ""
// when the file or the field is missing.
func prettyName(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "PRETTY_NAME=") {
			continue
		}
		name := strings.TrimPrefix(line, "PRETTY_NAME=")
		return strings.Trim(strings.TrimSpace(name), `"`)
	}
	return ""
}

func gbString(b uint64) string {
	return fmt.Sprintf("%.2f", float64(b)/(1<<30))
}

func pctString(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
