package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"os"

	"sola-docstore/internal/filesystem"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format labels used for registered decoders.
const (
	FormatJPEG   = "jpeg"
	FormatRaster = "raster"
	FormatPDF    = "pdf"
	FormatVips   = "vips"
)

var (
	errInvalidDimensions = errors.New("image reports non-positive dimensions")
	errNoPixels          = errors.New("decoder produced no pixel data")
)

func openSource(path string) (*os.File, error) {
	return filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
}

// decodeJPEG checks the declared dimensions before decoding the pixels.
// EXIF orientation is applied so phone-scanned pages come out upright.
func decodeJPEG(path string) (image.Image, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read jpeg header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errInvalidDimensions
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	return imaging.Decode(f, imaging.AutoOrientation(true))
}

// decodeRaster decodes any still image format registered with the image package.
func decodeRaster(path string) (image.Image, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errNoPixels
	}
	return img, nil
}
