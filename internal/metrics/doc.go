// Package metrics provides Prometheus instrumentation for the document store.
//
// All metrics are prefixed with "sola_docstore_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Document Cache Metrics
//
// Event counters are fed by the cache.Observer returned from
// NewCacheObserver. Size gauges are refreshed by a Collector:
//   - CachePutsTotal, CachePutBytes: writes by status
//   - CacheGetsTotal: lookups by result (hit, miss, error)
//   - CacheRecomputesTotal: full directory scans of the cache root
//   - CacheEvictionRunsTotal, CacheEvictedFilesTotal, CacheEvictedBytesTotal
//   - CacheEvictionShortfallsTotal: passes that could not reach the resized target
//   - CacheSizeBytes, CacheKnownBytes, CacheFiles, CacheLimitBytes
//
// ## Thumbnail Metrics
//
//   - ThumbnailGenerationsTotal: Counter by decoder format and status
//   - ThumbnailGenerationDuration: Histogram of successful generations
//   - ThumbnailTimeoutsTotal: requests abandoned by the worker pool
//   - ThumbnailWorkers: pool size
//
// ## Scan Folder Metrics
//
//   - ScanCleanRunsTotal, ScanFilesRemovedTotal, ScanCleanLastTimestamp
//
// ## Memory Metrics
//
//   - MemoryUsageRatio, MemoryUnderPressure: fed by the memory.Monitor observer
//   - MemoryLimitBytes: budget the monitor measures against
//
// ## Filesystem Metrics
//
// Retry behavior on network mounts, labelled by operation and volume
// ("cache", "scans", "unknown"). ESTALE errors are counted separately.
//
// # Usage
//
// Observers are installed once at startup:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	mgr, _ := cache.New(cfg, cache.WithObserver(metrics.NewCacheObserver()))
//	metrics.InitializeMetrics()
//
// The /metrics endpoint is served by handlers.MetricsHandler.
package metrics
