package handlers

import (
	"net/http"

	"sola-docstore/internal/logging"
)

// GetCacheStats returns the document cache size and limits.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.cache.Stats()
	if err != nil {
		logging.Warn("Failed to read cache stats: %v", err)
		writeJSONError(w, "failed to read cache stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, stats)
}
