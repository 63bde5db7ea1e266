package handlers

import (
	"net/http"

	"sola-docstore/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler returns the Prometheus metrics handler
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: promErrorLogger{},
	})
}

// promErrorLogger routes promhttp errors through the logging package.
type promErrorLogger struct{}

func (promErrorLogger) Println(v ...interface{}) {
	logging.Warn("metrics: %v", v)
}
