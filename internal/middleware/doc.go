// Package middleware provides HTTP middleware for the preview service.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with health checks optional
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression of JSON responses
package middleware
