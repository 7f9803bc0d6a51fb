package domain

import (
	"image"
	"image/draw"
	"math"
)

// Point is a position in the coordinate space of the displayed page.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a selection rectangle in page-pixel (scene) units.
// A normalized Rect has its origin at the top-left corner and W, H >= 0.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NormalizedRect returns the bounding box of two corner points.
func NormalizedRect(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

// Page is one rasterized document page.
// Pixels are always held as a zero-origin RGBA buffer.
type Page struct {
	Image *image.RGBA
}

// NewPage copies img into a zero-origin RGBA page.
func NewPage(img image.Image) Page {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return Page{Image: dst}
}

// Width returns the page width in pixels.
func (p Page) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the page height in pixels.
func (p Page) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Bounds returns the page rectangle.
func (p Page) Bounds() image.Rectangle {
	if p.Image == nil {
		return image.Rectangle{}
	}
	return p.Image.Bounds()
}

// SameSize reports whether two pages have identical dimensions.
func (p Page) SameSize(other Page) bool {
	return p.Width() == other.Width() && p.Height() == other.Height()
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	if p.Image == nil {
		return Page{}
	}
	pix := make([]uint8, len(p.Image.Pix))
	copy(pix, p.Image.Pix)
	return Page{Image: &image.RGBA{
		Pix:    pix,
		Stride: p.Image.Stride,
		Rect:   p.Image.Rect,
	}}
}

// Document is the ordered page sequence of one opened file.
type Document struct {
	ID     string
	Source string
	Pages  []Page
}
