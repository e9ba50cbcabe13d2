package metrics

import (
	"context"
	"time"

	"github.com/cuemby/minder/pkg/log"
	"github.com/cuemby/minder/pkg/storage"
	"github.com/cuemby/minder/pkg/sysinfo"
)

// Collector periodically refreshes the host uptime gauges from the kernel
// boot time and the boot history store.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new uptime collector
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := log.WithComponent("metrics")

	now := time.Now()
	boot, err := sysinfo.BootTime(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read boot time")
		return
	}
	UptimeSeconds.Set(now.Sub(boot).Seconds())

	var history []time.Time
	if c.store != nil {
		history, err = c.store.BootTimes()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load boot history")
			history = nil
		}
		BootRecords.Set(float64(len(history)))
	}

	UptimePercentage7d.Set(sysinfo.UptimePercentage(now, boot, history))
}
