package thumbnail

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTestPDF writes a single-page PDF with an empty page of the given size
// in points.
func writeTestPDF(t *testing.T, path string, width, height int) {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>", width, height),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test pdf: %v", err)
	}
}

func TestIsVipsAvailable(t *testing.T) {
	t.Logf("libvips available: %v", IsVipsAvailable())
}

func TestInitVipsIdempotency(t *testing.T) {
	if err := InitVips(); err != nil {
		t.Skipf("libvips not available: %v", err)
	}
	if err := InitVips(); err != nil {
		t.Errorf("Second InitVips() call failed: %v", err)
	}
	if !IsVipsAvailable() {
		t.Error("After successful InitVips, IsVipsAvailable should return true")
	}
}

func TestThumbnailPDFFirstPage(t *testing.T) {
	if !IsVipsAvailable() || !pdfSupported() {
		t.Skip("libvips without PDF support")
	}

	path := filepath.Join(t.TempDir(), "deed.pdf")
	writeTestPDF(t, path, 200, 100)

	p := NewPipeline(nil)
	if !p.Registry().Supports(path) {
		t.Fatal("default registry does not handle pdf")
	}

	bmp, ok := p.Thumbnail(path, 0, 0)
	if !ok {
		t.Fatal("expected a thumbnail of the first page")
	}
	if bmp.Width() != 200 || bmp.Height() != 100 {
		t.Errorf("got %dx%d, want 200x100", bmp.Width(), bmp.Height())
	}
	if r, g, b := bmp.RGBAt(100, 50); r != 255 || g != 255 || b != 255 {
		t.Errorf("blank page pixel = (%d,%d,%d), want white", r, g, b)
	}

	small, ok := p.Thumbnail(path, 50, 0)
	if !ok {
		t.Fatal("expected a scaled thumbnail")
	}
	if small.Width() != 50 || small.Height() != 25 {
		t.Errorf("got %dx%d, want 50x25", small.Width(), small.Height())
	}
}

func TestThumbnailCorruptPDF(t *testing.T) {
	if !IsVipsAvailable() || !pdfSupported() {
		t.Skip("libvips without PDF support")
	}

	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewPipeline(nil).Thumbnail(path, 100, 100); ok {
		t.Error("expected no thumbnail for a corrupt pdf")
	}
}
