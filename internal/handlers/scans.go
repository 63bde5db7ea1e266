package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"sola-docstore/internal/logging"
	"sola-docstore/internal/scans"
	"sola-docstore/internal/thumbnail"

	"github.com/gorilla/mux"
)

const (
	defaultThumbnailWidth = 256
	maxThumbnailSize      = 4096
	thumbnailJPEGQuality  = 85
	memoryRetryAfter      = "5"
)

// ListScans returns the files waiting in the network scan folder.
func (h *Handlers) ListScans(w http.ResponseWriter, _ *http.Request) {
	if h.scanDir == "" {
		writeJSONError(w, "no scan folder configured", http.StatusNotFound)
		return
	}

	list, err := scans.List(h.scanDir, h.supports)
	if err != nil {
		logging.Warn("Failed to list scan folder: %v", err)
		writeJSONError(w, "failed to list scan folder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, map[string]interface{}{
		"folder": h.scanDir,
		"scans":  list,
	})
}

// GetScanThumbnail renders a preview of one scan. width and height bound
// the preview and 0 leaves an axis unconstrained. Only width has a default,
// so an unqualified request keeps the page's aspect ratio.
func (h *Handlers) GetScanThumbnail(w http.ResponseWriter, r *http.Request) {
	if h.scanDir == "" {
		http.Error(w, "No scan folder configured", http.StatusNotFound)
		return
	}

	path, err := scans.Resolve(h.scanDir, mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "Invalid scan name", http.StatusBadRequest)
		return
	}

	width, okW := queryInt(r, "width", defaultThumbnailWidth)
	height, okH := queryInt(r, "height", 0)
	if !okW || !okH || width > maxThumbnailSize || height > maxThumbnailSize {
		http.Error(w, "Invalid thumbnail size", http.StatusBadRequest)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "jpeg"
	}
	if format != "jpeg" && format != "png" {
		http.Error(w, "Unsupported output format", http.StatusBadRequest)
		return
	}

	if h.underPressure != nil && h.underPressure() {
		w.Header().Set("Retry-After", memoryRetryAfter)
		http.Error(w, "Server is under memory pressure", http.StatusServiceUnavailable)
		return
	}

	bmp, err := h.thumbs.Generate(r.Context(), path, width, height)
	if err != nil {
		switch {
		case errors.Is(err, thumbnail.ErrTimeout):
			logging.Warn("Thumbnail: timed out for %s", path)
			http.Error(w, "Thumbnail generation timed out", http.StatusServiceUnavailable)
		case errors.Is(err, thumbnail.ErrSourceNotFound):
			http.Error(w, "Scan not found", http.StatusNotFound)
		default:
			logging.Debug("Thumbnail: unavailable for %s: %v", path, err)
			http.Error(w, "Thumbnail unavailable", http.StatusNotFound)
		}
		return
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	if format == "png" {
		contentType = "image/png"
		err = bmp.EncodePNG(&buf)
	} else {
		err = bmp.EncodeJPEG(&buf, thumbnailJPEGQuality)
	}
	if err != nil {
		logging.Error("Thumbnail: failed to encode %s: %v", path, err)
		http.Error(w, "Failed to encode thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Debug("Thumbnail: client went away: %v", err)
	}
}
