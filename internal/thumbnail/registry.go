package thumbnail

import (
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Decoder turns the file at path into a raster image.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(path string) (image.Image, error)

// Decode calls f(path).
func (f DecoderFunc) Decode(path string) (image.Image, error) {
	return f(path)
}

type registration struct {
	format  string
	decoder Decoder
}

// Registry maps normalized file extensions to decoders. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]registration)}
}

// DefaultRegistry returns a registry with the built-in decoders. PDF and
// the libvips-only raster formats are registered when libvips has been
// initialized with InitVips.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatJPEG, DecoderFunc(decodeJPEG), "jpg", "jpeg")
	r.Register(FormatRaster, DecoderFunc(decodeRaster), "png", "gif", "bmp", "tif", "tiff", "webp")

	if IsVipsAvailable() {
		if pdfSupported() {
			r.Register(FormatPDF, DecoderFunc(decodePDF), "pdf")
		}
		r.Register(FormatVips, DecoderFunc(decodeWithVips), "heic", "heif", "avif", "jp2")
	}
	return r
}

// Register binds d to each extension, replacing earlier registrations.
// format labels the decoder in metrics.
func (r *Registry) Register(format string, d Decoder, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		r.decoders[NormalizeExtension(ext)] = registration{format: format, decoder: d}
	}
}

// Lookup returns the decoder registered for ext.
func (r *Registry) Lookup(ext string) (format string, d Decoder, ok bool) {
	ext = NormalizeExtension(ext)
	if ext == "" {
		return "", nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.decoders[ext]
	return reg.format, reg.decoder, ok
}

// Supports reports whether a decoder is registered for the extension of path.
func (r *Registry) Supports(path string) bool {
	_, _, ok := r.Lookup(FileExtension(path))
	return ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FileExtension returns the text after the last dot of the base name of
// path, or "" when there is none. A leading dot does not start an
// extension, so ".profile" has none.
func FileExtension(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}
