// Package handlers provides the HTTP handlers of the preview service.
//
// It includes handlers for:
//   - Health, liveness and readiness probes
//   - Document cache statistics
//   - Network scan folder listing and scan previews
//   - Build information and Prometheus metrics
package handlers
