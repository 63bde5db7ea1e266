// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// Configuration is held by a viper instance from [NewViper]. Each key is read
// from the environment variable of the same name, and the cobra CLI binds
// its flags onto the same keys:
//
//   - DOCUMENT_CACHE_FOLDER: cache root (default: ~/sola/cache/documents)
//   - DOCUMENT_CACHE_MAX_SIZE: eviction ceiling, datasize syntax (default: 200MB)
//   - DOCUMENT_CACHE_RESIZED: eviction target (default: 120MB)
//   - NETWORK_SCAN_FOLDER: folder scanners write into (default: none)
//   - CLEAN_NETWORK_SCAN_FOLDER: delete expired scans (default: false)
//   - SCANNED_FILE_LIFETIME: age at which a scan expires (default: 72h)
//   - CLEAN_NETWORK_SCAN_FOLDER_POLL_PERIOD: cleaning interval (default: 1h)
//   - THUMBNAIL_WORKERS: decode pool size, 0 for one per CPU (default: 0)
//   - THUMBNAIL_TIMEOUT: per-preview deadline (default: 30s)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - LOG_HEALTH_CHECKS: log health check requests (default: false)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// [ReadConfig] decodes and validates quietly; [LoadConfig] also prints the
// banner and checks the folders.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
