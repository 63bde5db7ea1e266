package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"time"

	"sola-docstore/internal/filesystem"

	"github.com/disintegration/imaging"
)

var (
	// ErrSourceNotFound is reported when the source file cannot be found.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrUnsupportedFormat is reported when no decoder handles the extension.
	ErrUnsupportedFormat = errors.New("no decoder for file extension")
	// ErrTimeout is reported by Pool when a preview is not ready in time.
	ErrTimeout = errors.New("thumbnail generation timed out")
)

// DecodeError wraps a decoder failure for one source file.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Observer receives the outcome of each generation. The metrics package
// provides the production implementation.
type Observer interface {
	// ObserveThumbnail is called once per Generate; err is nil on success.
	ObserveThumbnail(format string, duration time.Duration, err error)
	// ObserveTimeout is called when a Pool request gives up waiting.
	ObserveTimeout()
}

type nopObserver struct{}

func (nopObserver) ObserveThumbnail(string, time.Duration, error) {}
func (nopObserver) ObserveTimeout()                               {}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithObserver sets the observer notified of each generation.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// Pipeline produces normalized preview bitmaps. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	registry *Registry
	observer Observer
	retry    filesystem.RetryConfig
}

// NewPipeline creates a pipeline over registry, or over DefaultRegistry
// when registry is nil.
func NewPipeline(registry *Registry, opts ...PipelineOption) *Pipeline {
	if registry == nil {
		registry = DefaultRegistry()
	}
	p := &Pipeline{
		registry: registry,
		observer: nopObserver{},
		retry:    filesystem.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the pipeline dispatches through.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Thumbnail returns a preview of the file at path that fits width×height.
// A width or height <= 0 leaves that axis unconstrained. ok is false when no
// preview can be produced, for whatever reason.
func (p *Pipeline) Thumbnail(path string, width, height int) (*Bitmap, bool) {
	bmp, err := p.Generate(path, width, height)
	if err != nil {
		return nil, false
	}
	return bmp, true
}

// Generate is Thumbnail with the failure reason: ErrSourceNotFound,
// ErrUnsupportedFormat or a *DecodeError.
func (p *Pipeline) Generate(path string, width, height int) (bmp *Bitmap, err error) {
	start := time.Now()
	format := "unknown"
	defer func() {
		p.observer.ObserveThumbnail(format, time.Since(start), err)
	}()

	info, err := filesystem.StatWithRetry(path, p.retry)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	ext := FileExtension(path)
	name, decoder, ok := p.registry.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	format = name

	img, err := safeDecode(decoder, path)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Err: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &DecodeError{Path: path, Format: format, Err: errInvalidDimensions}
	}

	if needsScaling(bounds.Dx(), bounds.Dy(), width, height) {
		// Box is an area-averaging filter. A zero axis follows the aspect ratio.
		img = imaging.Resize(img, max(width, 0), max(height, 0), imaging.Box)
	}

	return newBitmap(img), nil
}

// needsScaling reports whether a srcW×srcH image exceeds a positive bound.
func needsScaling(srcW, srcH, width, height int) bool {
	return (width > 0 && srcW > width) || (height > 0 && srcH > height)
}

func safeDecode(d Decoder, path string) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	img, err = d.Decode(path)
	if err == nil && img == nil {
		err = errNoPixels
	}
	return img, err
}
