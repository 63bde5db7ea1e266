// Package memory keeps the preview server inside its container memory
// limit.
//
// Go detects cgroup CPU limits on its own but not memory limits, so
// [ConfigureFromEnv] derives GOMEMLIMIT from the container limit. libvips
// decodes PDF pages into buffers outside the Go heap, which is why only a
// fraction of the container limit is handed to the runtime.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing is
//     changed.
//   - MEMORY_LIMIT: container limit, usually from the Kubernetes Downward
//     API. Plain byte counts and datasize strings ("512MB") are accepted.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, between 0
//     and 1. Defaults to [DefaultMemoryRatio].
//
// # Monitor
//
// [Monitor] samples heap usage against the limit and reports pressure once
// usage crosses the critical mark. Pressure clears only after usage falls
// back below the high mark. The HTTP layer rejects new thumbnail requests
// while pressure is reported rather than queueing more decodes.
package memory
