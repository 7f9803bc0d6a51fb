package domain

import (
	"fmt"
	"image"
	"image/color"
	"testing"
)

func TestNormalizedRect(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Rect
	}{
		{
			name: "top-left to bottom-right",
			a:    Point{X: 10, Y: 10},
			b:    Point{X: 50, Y: 40},
			want: Rect{X: 10, Y: 10, W: 40, H: 30},
		},
		{
			name: "bottom-right to top-left",
			a:    Point{X: 50, Y: 40},
			b:    Point{X: 10, Y: 10},
			want: Rect{X: 10, Y: 10, W: 40, H: 30},
		},
		{
			name: "crossed axes",
			a:    Point{X: 50, Y: 10},
			b:    Point{X: 10, Y: 40},
			want: Rect{X: 10, Y: 10, W: 40, H: 30},
		},
		{
			name: "same point",
			a:    Point{X: 3, Y: 4},
			b:    Point{X: 3, Y: 4},
			want: Rect{X: 3, Y: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizedRect(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("NormalizedRect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPage_NormalizesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 15, 25))
	src.Set(5, 5, color.NRGBA{R: 200, A: 255})

	page := NewPage(src)

	if page.Bounds().Min != (image.Point{}) {
		t.Errorf("Expected zero origin, got %v", page.Bounds().Min)
	}
	if page.Width() != 10 || page.Height() != 20 {
		t.Errorf("Expected 10x20, got %dx%d", page.Width(), page.Height())
	}
	if got := page.Image.RGBAAt(0, 0); got.R != 200 || got.A != 255 {
		t.Errorf("Expected top-left pixel to carry over, got %+v", got)
	}
}

func TestPage_CloneIsIndependent(t *testing.T) {
	page := NewPage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	clone := page.Clone()

	clone.Image.SetRGBA(1, 1, color.RGBA{G: 255, A: 255})

	if page.Image.RGBAAt(1, 1) == clone.Image.RGBAAt(1, 1) {
		t.Error("Expected clone mutation not to reach the original")
	}
	if !page.SameSize(clone) {
		t.Error("Expected clone to keep dimensions")
	}
}

func TestPage_ZeroValue(t *testing.T) {
	var page Page
	if page.Width() != 0 || page.Height() != 0 {
		t.Errorf("Expected zero dimensions, got %dx%d", page.Width(), page.Height())
	}
	if page.Clone().Image != nil {
		t.Error("Expected clone of empty page to be empty")
	}
}

func TestDomainError(t *testing.T) {
	cause := fmt.Errorf("broken xref")
	err := LoadError("Failed to open PDF", cause)

	if err.Error() != "[load] Failed to open PDF: broken xref" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}

	wrapped := fmt.Errorf("open session: %w", err)
	if !IsType(wrapped, ErrorTypeLoad) {
		t.Error("Expected wrapped error to match load type")
	}
	if IsType(wrapped, ErrorTypeSave) {
		t.Error("Expected wrapped error not to match save type")
	}
	if TypeOf(cause) != "" {
		t.Errorf("Expected plain error to have no type, got %q", TypeOf(cause))
	}
	if IsType(nil, ErrorTypeLoad) {
		t.Error("Expected nil not to match any type")
	}

	if got := NoDocumentError("no document loaded").Error(); got != "[no_document] no document loaded" {
		t.Errorf("Unexpected message: %s", got)
	}
}
