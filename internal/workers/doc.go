// Package workers sizes worker pools from the CPU budget the process actually
// has. runtime.GOMAXPROCS(0) follows cgroup CPU limits since Go 1.19 while
// runtime.NumCPU reports the host, so a container limited to two CPUs on a
// large node gets two decode workers rather than dozens.
//
// An explicit override (the THUMBNAIL_WORKERS setting) always wins, clamped
// to the limit:
//
//	size := workers.ForCPU(cfg.ThumbnailWorkers, 8)
package workers
