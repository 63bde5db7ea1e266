package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/thumbnail"
)

// CacheStats reports the state of the document cache. *cache.Manager
// implements it.
type CacheStats interface {
	Stats() (cache.Stats, error)
}

// Thumbnailer produces previews. *thumbnail.Pool implements it.
type Thumbnailer interface {
	Generate(ctx context.Context, path string, width, height int) (*thumbnail.Bitmap, error)
}

// Handlers serves the read-only preview API.
type Handlers struct {
	cache         CacheStats
	thumbs        Thumbnailer
	supports      func(path string) bool
	scanDir       string
	started       time.Time
	ready         atomic.Bool
	underPressure func() bool
}

// New creates the handlers. scanDir may be empty, in which case the scan
// endpoints report 404. supports marks which scans can be previewed.
func New(c CacheStats, thumbs Thumbnailer, supports func(path string) bool, scanDir string) *Handlers {
	return &Handlers{
		cache:    c,
		thumbs:   thumbs,
		supports: supports,
		scanDir:  scanDir,
		started:  time.Now(),
	}
}

// SetReady flips the readiness probe once startup has finished.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetMemoryGuard makes thumbnail requests fail fast with 503 while
// underPressure reports true. It must be called before serving.
func (h *Handlers) SetMemoryGuard(underPressure func() bool) {
	h.underPressure = underPressure
}
