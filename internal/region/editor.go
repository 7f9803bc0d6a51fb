// Package region applies redaction effects to rectangular areas of a page.
package region

import (
	"image"
	"math"
	"math/rand/v2"
	"time"

	"github.com/anthonynsimon/bild/blur"
	"github.com/spherical/pdf-redactor/internal/domain"
	"golang.org/x/image/draw"
)

// Editor applies effects to page regions. The random source drives mosaic cells.
// An Editor is not safe for concurrent use.
type Editor struct {
	rng *rand.Rand
}

// NewEditor creates an editor drawing mosaic cells from src.
// A nil src seeds from the clock.
func NewEditor(src rand.Source) *Editor {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1)
	}
	return &Editor{rng: rand.New(src)}
}

// NewSeededEditor creates an editor with a deterministic mosaic sequence.
func NewSeededEditor(seed uint64) *Editor {
	return NewEditor(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Clamp truncates rect to whole pixels and clips it to bounds. The result is
// not canonicalized: a selection outside bounds yields Dx or Dy <= 0.
func Clamp(rect domain.Rect, bounds image.Rectangle) image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(clampCoord(rect.X, bounds.Min.X, bounds.Max.X), clampCoord(rect.Y, bounds.Min.Y, bounds.Max.Y)),
		Max: image.Pt(clampCoord(rect.X+rect.W, bounds.Min.X, bounds.Max.X), clampCoord(rect.Y+rect.H, bounds.Min.Y, bounds.Max.Y)),
	}
}

// clampCoord limits v to [lo, hi] while still a float, so values outside the
// int range never reach the conversion. NaN maps to lo.
func clampCoord(v float64, lo, hi int) int {
	switch {
	case math.IsNaN(v) || v <= float64(lo):
		return lo
	case v >= float64(hi):
		return hi
	}
	return int(v)
}

// Apply returns a copy of page with effect applied inside rect, and whether
// anything was edited. Selections narrower or shorter than two pixels after
// clamping leave the page unchanged.
func (e *Editor) Apply(page domain.Page, rect domain.Rect, effect Effect) (domain.Page, bool) {
	if page.Image == nil {
		return page, false
	}

	area := Clamp(rect, page.Bounds())
	if area.Dx() <= 1 || area.Dy() <= 1 {
		return page, false
	}

	sub := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	draw.Copy(sub, image.Point{}, page.Image, area, draw.Src, nil)

	var processed *image.RGBA
	switch effect.Kind {
	case KindBlur:
		processed = gaussian(sub, effect.Radius)
	case KindMosaic:
		processed = e.mosaic(area.Dx(), area.Dy(), effect.BlockSize)
	default:
		return page, false
	}

	out := page.Clone()
	draw.Draw(out.Image, area, processed, processed.Bounds().Min, draw.Src)
	return out, true
}

// gaussian blurs the colour channels of sub and keeps its alpha.
func gaussian(sub *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		radius = DefaultBlurRadius
	}
	blurred := blur.Gaussian(sub, radius)
	for i := 3; i < len(sub.Pix) && i < len(blurred.Pix); i += 4 {
		blurred.Pix[i] = sub.Pix[i]
	}
	return blurred
}

// mosaic renders a w x h block pattern. Each cell of the coarse grid is
// black or white with equal probability; the grid is scaled up with
// nearest-neighbour sampling so cell edges stay hard.
func (e *Editor) mosaic(w, h, block int) *image.RGBA {
	if block < 1 {
		block = DefaultMosaicBlock
	}
	cols := max(1, w/block)
	rows := max(1, h/block)

	grid := image.NewGray(image.Rect(0, 0, cols, rows))
	for i := range grid.Pix {
		if e.rng.IntN(2) == 1 {
			grid.Pix[i] = 0xff
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), grid, grid.Bounds(), draw.Src, nil)
	return dst
}
