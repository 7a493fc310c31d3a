package metrics

import (
	"time"

	"photocull/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// dbMetricsUpdater is implemented by providers backed by a connection pool.
type dbMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the action journal totals
type Stats struct {
	Kept    int
	Deleted int
}

// Collector periodically copies journal totals into gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	SessionFilesTotal.WithLabelValues("keep").Set(float64(stats.Kept))
	SessionFilesTotal.WithLabelValues("delete").Set(float64(stats.Deleted))

	if u, ok := c.statsProvider.(dbMetricsUpdater); ok {
		u.UpdateDBMetrics()
	}

	logging.Debug("Metrics collected: kept=%d, deleted=%d", stats.Kept, stats.Deleted)
}
