/*
Package filesystem wraps the filesystem calls made by the document store with
retry logic for NFS stale file handle errors.

Document caches and network scan folders frequently live on network mounts.
When the server side replaces a file, clients may see ESTALE (errno 116) for
a short window; these helpers retry such calls with exponential backoff and
fail immediately on every other error.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Metric recording goes through the package-level Observer, which the metrics
package provides at startup. With no observer set, nothing is recorded.

Paths are labeled with a volume name ("cache", "scans") via VolumeResolver so
metrics can tell the document cache apart from the scan folder.
*/
package filesystem
