package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"sola-docstore/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool

	errVipsUnavailable = errors.New("libvips not available")
)

// InitVips starts libvips and routes its log messages through the logging
// package. It must be called once at startup, before DefaultRegistry, for
// PDF previews to be available.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	var vipsLogLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
	case logging.LevelInfo:
		vipsLogLevel = vips.LogLevelWarning
	case logging.LevelWarn:
		vipsLogLevel = vips.LogLevelError
	default:
		vipsLogLevel = vips.LogLevelCritical
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// PDF pages are rendered one at a time; the Pool bounds parallelism.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s, pdf: %v)", vips.Version, vips.IsTypeSupported(vips.ImageTypePDF))
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

func pdfSupported() bool {
	return vips.IsTypeSupported(vips.ImageTypePDF)
}

// decodePDF renders the first page of a PDF at its own size (72 DPI, the
// loader default) on a white background. It blocks until the whole page
// has been rasterized.
func decodePDF(path string) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	params := vips.NewImportParams()
	params.Page.Set(0)
	params.NumPages.Set(1)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load pdf: %w", err)
	}
	defer ref.Close()

	return flattenToImage(ref)
}

// decodeWithVips handles raster formats the Go image package cannot read.
func decodeWithVips(path string) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	return flattenToImage(ref)
}

func flattenToImage(ref *vips.ImageRef) (image.Image, error) {
	if ref.Width() <= 0 || ref.Height() <= 0 {
		return nil, errInvalidDimensions
	}

	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("vips flatten failed: %w", err)
		}
	}

	// PNG keeps the rendered page lossless on its way into Go.
	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
