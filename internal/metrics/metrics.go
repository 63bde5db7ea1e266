package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sola_docstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Document cache metrics
var (
	CachePutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_puts_total",
			Help: "Total number of documents written to the cache",
		},
		[]string{"status"},
	)

	CachePutBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_put_bytes_total",
			Help: "Total bytes written to the cache",
		},
	)

	CacheGetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_gets_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	CacheRecomputesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_recomputes_total",
			Help: "Total number of times the cache size was recomputed from disk",
		},
	)

	CacheEvictionRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_eviction_runs_total",
			Help: "Total number of eviction passes",
		},
	)

	CacheEvictedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_evicted_files_total",
			Help: "Total number of files evicted from the cache",
		},
	)

	CacheEvictedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_evicted_bytes_total",
			Help: "Total bytes evicted from the cache",
		},
	)

	CacheEvictionShortfallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_cache_eviction_shortfalls_total",
			Help: "Eviction passes that could not reach the resized target",
		},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_cache_size_bytes",
			Help: "Size of the document cache on disk in bytes",
		},
	)

	CacheKnownBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_cache_known_bytes",
			Help: "Running size estimate held by the cache manager (-1 when unknown)",
		},
	)

	CacheFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_cache_files",
			Help: "Number of documents in the cache",
		},
	)

	CacheLimitBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sola_docstore_cache_limit_bytes",
			Help: "Configured cache thresholds in bytes",
		},
		[]string{"threshold"}, // "max", "resized"
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"format", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sola_docstore_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	ThumbnailTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_thumbnail_timeouts_total",
			Help: "Thumbnail requests abandoned because they exceeded the deadline",
		},
	)

	ThumbnailWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_thumbnail_workers",
			Help: "Size of the thumbnail worker pool",
		},
	)
)

// Network scan folder metrics
var (
	ScanCleanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_scan_clean_runs_total",
			Help: "Total number of scan folder clean passes",
		},
		[]string{"status"},
	)

	ScanFilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sola_docstore_scan_files_removed_total",
			Help: "Total number of expired scans removed",
		},
	)

	ScanCleanLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_scan_clean_last_timestamp",
			Help: "Unix timestamp of the last scan folder clean pass",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sola_docstore_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds, including retries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_filesystem_operation_errors_total",
			Help: "Filesystem operations that failed after all retries",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sola_docstore_filesystem_stale_errors_total",
			Help: "Stale file handle (ESTALE) errors seen on network mounts",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_memory_usage_ratio",
			Help: "Heap usage as a share of the memory limit",
		},
	)

	MemoryUnderPressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_memory_under_pressure",
			Help: "1 while new thumbnail requests are rejected for memory pressure",
		},
	)

	MemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sola_docstore_memory_limit_bytes",
			Help: "Memory budget the monitor measures against, 0 when unknown",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sola_docstore_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
