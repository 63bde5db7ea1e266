package metrics

import (
	"errors"
	"time"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/filesystem"
	"sola-docstore/internal/memory"
	"sola-docstore/internal/scans"
	"sola-docstore/internal/thumbnail"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

type cacheObserver struct{}

// NewCacheObserver creates an observer for cache.Manager events.
func NewCacheObserver() cache.Observer {
	return &cacheObserver{}
}

func (o *cacheObserver) ObservePut(bytes int64, err error) {
	if err != nil {
		CachePutsTotal.WithLabelValues("error").Inc()
		return
	}
	CachePutsTotal.WithLabelValues("success").Inc()
	CachePutBytes.Add(float64(bytes))
}

func (o *cacheObserver) ObserveGet(result string) {
	CacheGetsTotal.WithLabelValues(result).Inc()
}

func (o *cacheObserver) ObserveRecompute(totalBytes int64) {
	CacheRecomputesTotal.Inc()
	CacheSizeBytes.Set(float64(totalBytes))
}

func (o *cacheObserver) ObserveEviction(files int, bytes int64, shortfall bool) {
	CacheEvictionRunsTotal.Inc()
	CacheEvictedFilesTotal.Add(float64(files))
	CacheEvictedBytesTotal.Add(float64(bytes))
	if shortfall {
		CacheEvictionShortfallsTotal.Inc()
	}
}

// ThumbnailStatuses lists the status label values of ThumbnailGenerationsTotal.
var ThumbnailStatuses = []string{"success", "error_not_found", "error_unsupported", "error_decode"}

type thumbnailObserver struct{}

// NewThumbnailObserver creates an observer for thumbnail generations.
func NewThumbnailObserver() thumbnail.Observer {
	return &thumbnailObserver{}
}

func (o *thumbnailObserver) ObserveThumbnail(format string, d time.Duration, err error) {
	ThumbnailGenerationsTotal.WithLabelValues(format, thumbnailStatus(err)).Inc()
	if err == nil {
		ThumbnailGenerationDuration.WithLabelValues(format).Observe(d.Seconds())
	}
}

func (o *thumbnailObserver) ObserveTimeout() {
	ThumbnailTimeoutsTotal.Inc()
}

func thumbnailStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, thumbnail.ErrSourceNotFound):
		return "error_not_found"
	case errors.Is(err, thumbnail.ErrUnsupportedFormat):
		return "error_unsupported"
	default:
		return "error_decode"
	}
}

type scansObserver struct{}

// NewScansObserver creates an observer for scan folder clean passes.
func NewScansObserver() scans.Observer {
	return &scansObserver{}
}

func (o *scansObserver) ObserveClean(removed int, err error) {
	if err != nil {
		ScanCleanRunsTotal.WithLabelValues("error").Inc()
	} else {
		ScanCleanRunsTotal.WithLabelValues("success").Inc()
	}
	ScanFilesRemovedTotal.Add(float64(removed))
	ScanCleanLastTimestamp.Set(float64(time.Now().Unix()))
}

type memoryObserver struct{}

// NewMemoryObserver creates an observer for memory monitor samples.
func NewMemoryObserver() memory.Observer {
	return &memoryObserver{}
}

func (o *memoryObserver) ObserveMemory(usage float64, underPressure bool) {
	MemoryUsageRatio.Set(usage)
	if underPressure {
		MemoryUnderPressure.Set(1)
	} else {
		MemoryUnderPressure.Set(0)
	}
}
