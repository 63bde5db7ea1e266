package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		CachePutsTotal.WithLabelValues(status)
		ScanCleanRunsTotal.WithLabelValues(status)
	}
	for _, result := range []string{"hit", "miss", "error"} {
		CacheGetsTotal.WithLabelValues(result)
	}
	for _, threshold := range []string{"max", "resized"} {
		CacheLimitBytes.WithLabelValues(threshold)
	}

	for _, format := range []string{"jpeg", "raster", "pdf", "vips", "unknown"} {
		ThumbnailGenerationDuration.WithLabelValues(format)
		for _, status := range ThumbnailStatuses {
			ThumbnailGenerationsTotal.WithLabelValues(format, status)
		}
	}

	volumes := []string{"cache", "scans", "unknown"}
	ops := []string{"stat", "open", "readdir"}
	for _, vol := range volumes {
		for _, op := range ops {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
