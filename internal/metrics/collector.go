package metrics

import (
	"time"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/logging"
)

// StatsProvider reports the state of the document cache. *cache.Manager
// implements it.
type StatsProvider interface {
	Stats() (cache.Stats, error)
}

// Collector periodically collects and updates metrics
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

	stats, err := c.statsProvider.Stats()
	if err != nil {
		logging.Warn("Failed to collect cache stats: %v", err)
		return
	}

	CacheSizeBytes.Set(float64(stats.Bytes))
	CacheKnownBytes.Set(float64(stats.KnownBytes))
	CacheFiles.Set(float64(stats.Files))
	CacheLimitBytes.WithLabelValues("max").Set(float64(stats.MaxBytes))
	CacheLimitBytes.WithLabelValues("resized").Set(float64(stats.ResizedBytes))

	logging.Debug("Metrics collected: cache files=%d, bytes=%d, known=%d",
		stats.Files, stats.Bytes, stats.KnownBytes)
}
