package main

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/handlers"
	"sola-docstore/internal/thumbnail"
)

func newTestHandlers(t *testing.T, scanDir string) *handlers.Handlers {
	t.Helper()
	mgr, err := cache.New(cache.Config{
		Root:         filepath.Join(t.TempDir(), "cache"),
		MaxBytes:     1 << 20,
		ResizedBytes: 1 << 19,
	})
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	pipeline := thumbnail.NewPipeline(nil)
	pool := thumbnail.NewPool(pipeline, 2, 5*time.Second)
	return handlers.New(mgr, pool, pipeline.Registry().Supports, scanDir)
}

func TestSetupRouter(t *testing.T) {
	scanDir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(scanDir, "parcel.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	h := newTestHandlers(t, scanDir)
	router := setupRouter(h, true)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"liveness", "GET", "/livez", http.StatusOK},
		{"liveness head", "HEAD", "/livez", http.StatusOK},
		{"readiness before ready", "GET", "/readyz", http.StatusServiceUnavailable},
		{"health before ready", "GET", "/healthz", http.StatusServiceUnavailable},
		{"version", "GET", "/api/version", http.StatusOK},
		{"cache stats", "GET", "/api/cache/stats", http.StatusOK},
		{"scan list", "GET", "/api/scans", http.StatusOK},
		{"scan thumbnail", "GET", "/api/scans/parcel.png/thumbnail?width=40", http.StatusOK},
		{"missing scan", "GET", "/api/scans/none.png/thumbnail", http.StatusNotFound},
		{"metrics", "GET", "/metrics", http.StatusOK},
		{"wrong method", "POST", "/api/scans", http.StatusMethodNotAllowed},
		{"unknown route", "GET", "/api/documents", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}

	h.SetReady(true)
	for _, path := range []string{"/readyz", "/healthz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s after SetReady = %d, want 200", path, rec.Code)
		}
	}
}

func TestSetupRouterWithoutMetrics(t *testing.T) {
	router := setupRouter(newTestHandlers(t, ""), false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without metrics = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scans", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/api/scans without scan folder = %d, want 404", rec.Code)
	}
}
