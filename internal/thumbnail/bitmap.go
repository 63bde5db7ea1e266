package thumbnail

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// Bitmap is an opaque RGB raster, 3 bytes per pixel in row-major order.
// It implements image.Image and is never modified after construction.
type Bitmap struct {
	width  int
	height int
	pix    []uint8
}

// newBitmap composites img onto an opaque white canvas of the same size and
// keeps only the color channels.
func newBitmap(img image.Image) *Bitmap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	canvas := imaging.New(w, h, color.White)
	flat := imaging.Overlay(canvas, imaging.Clone(img), image.Pt(0, 0), 1.0)

	pix := make([]uint8, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := flat.Pix[y*flat.Stride : y*flat.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			pix = append(pix, row[x], row[x+1], row[x+2])
		}
	}

	return &Bitmap{width: w, height: h, pix: pix}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// Pix returns a copy of the packed RGB pixel data.
func (b *Bitmap) Pix() []uint8 {
	out := make([]uint8, len(b.pix))
	copy(out, b.pix)
	return out
}

// RGBAt returns the color of the pixel at (x, y).
func (b *Bitmap) RGBAt(x, y int) (r, g, bl uint8) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, 0, 0
	}
	i := (y*b.width + x) * 3
	return b.pix[i], b.pix[i+1], b.pix[i+2]
}

func (b *Bitmap) ColorModel() color.Model {
	return color.RGBAModel
}

func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

func (b *Bitmap) At(x, y int) color.Color {
	r, g, bl := b.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: bl, A: 0xff}
}

// EncodeJPEG writes the bitmap as a JPEG image.
func (b *Bitmap) EncodeJPEG(w io.Writer, quality int) error {
	return imaging.Encode(w, b, imaging.JPEG, imaging.JPEGQuality(quality))
}

// EncodePNG writes the bitmap as a PNG image.
func (b *Bitmap) EncodePNG(w io.Writer) error {
	return imaging.Encode(w, b, imaging.PNG)
}
