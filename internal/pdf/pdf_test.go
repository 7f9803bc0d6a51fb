package pdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/spherical/pdf-redactor/internal/config"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripedPage(w, h int, c color.RGBA) domain.Page {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/10)%2 == 0 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return domain.Page{Image: img}
}

func TestIsDocumentPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"report.pdf", true},
		{"/tmp/REPORT.PDF", true},
		{"scan.Pdf ", true},
		{"notes.txt", false},
		{"archive.pdf.zip", false},
		{"pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDocumentPath(tt.path))
		})
	}
}

func TestFirstDocumentPath(t *testing.T) {
	path, ok := FirstDocumentPath([]string{"a.png", "b.pdf", "c.pdf"})
	assert.True(t, ok)
	assert.Equal(t, "b.pdf", path)

	_, ok = FirstDocumentPath([]string{"a.png", "b.docx"})
	assert.False(t, ok)

	_, ok = FirstDocumentPath(nil)
	assert.False(t, ok)
}

func TestValidator_ValidatePDFPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(good, []byte("%PDF-1.7\n"), 0o644))
	text := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "existing pdf", path: good},
		{name: "empty path", path: "  ", wantErr: true},
		{name: "non-existent file", path: filepath.Join(dir, "missing.pdf"), wantErr: true},
		{name: "directory instead of file", path: dir, wantErr: true},
		{name: "wrong extension", path: text, wantErr: true},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDFPath(tt.path)
			if tt.wantErr {
				assert.True(t, domain.IsType(err, domain.ErrorTypeValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateDPI(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.ValidateDPI(300))
	assert.NoError(t, v.ValidateDPI(36))
	assert.Error(t, v.ValidateDPI(35))
	assert.Error(t, v.ValidateDPI(1201))
}

func TestConverter_InvalidFiles(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a pdf"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"non-existent file", filepath.Join(dir, "does-not-exist.pdf")},
		{"empty path", ""},
		{"directory instead of file", dir},
		{"corrupt content", corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConverter(72, nil).Rasterize(context.Background(), tt.path)
			assert.True(t, domain.IsType(err, domain.ErrorTypeLoad), "got %v", err)
		})
	}
}

func TestWriter_EmptyDocumentWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	err := NewWriter(72, nil).Write(context.Background(), domain.Document{}, out)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEmptyDocument))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is created")

	err = NewWriter(72, nil).Stream(context.Background(), domain.Document{}, &bytes.Buffer{})
	assert.True(t, domain.IsType(err, domain.ErrorTypeEmptyDocument))
}

func TestWriter_UnwritableDestination(t *testing.T) {
	doc := domain.Document{Pages: []domain.Page{stripedPage(20, 20, color.RGBA{A: 255})}}
	out := filepath.Join(t.TempDir(), "missing-dir", "out.pdf")

	err := NewWriter(72, nil).Write(context.Background(), doc, out)
	assert.True(t, domain.IsType(err, domain.ErrorTypeSave), "got %v", err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	doc := domain.Document{Pages: []domain.Page{stripedPage(20, 20, color.RGBA{A: 255})}}
	err := NewWriter(72, nil).Write(ctx, doc, filepath.Join(dir, "out.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeSave))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "temp file removed")
}

func TestWriter_MultiPageOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	doc := domain.Document{Pages: []domain.Page{
		stripedPage(144, 72, color.RGBA{R: 255, A: 255}),
		stripedPage(72, 144, color.RGBA{B: 255, A: 255}),
		stripedPage(100, 100, color.RGBA{G: 128, A: 128}),
	}}

	require.NoError(t, NewWriter(72, nil).Write(context.Background(), doc, out))

	count, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(72, nil).Stream(context.Background(), doc, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRoundTrip_WriteThenRasterize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rasterization round trip in short mode")
	}

	tests := []struct {
		name string
		dpi  int
	}{
		{"screen resolution", 72},
		{"configured resolution", config.DefaultConfig().Render.DPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "roundtrip.pdf")
			pages := []domain.Page{
				stripedPage(300, 150, color.RGBA{R: 255, A: 255}),
				stripedPage(620, 877, color.RGBA{B: 255, A: 255}),
			}

			require.NoError(t, NewWriter(tt.dpi, nil).Write(context.Background(), domain.Document{Pages: pages}, out))

			loaded, err := NewConverter(tt.dpi, nil).Rasterize(context.Background(), out)
			require.NoError(t, err)
			require.Len(t, loaded, 2)

			for i := range pages {
				require.True(t, pages[i].SameSize(loaded[i]), "page %d: wrote %v, read %v", i, pages[i].Bounds(), loaded[i].Bounds())
				assert.Equal(t, image.Point{}, loaded[i].Bounds().Min)
				assert.Equal(t, pages[i].Image.Pix, loaded[i].Image.Pix, "page %d pixels", i)
			}
		})
	}
}

func TestWriter_PageSizeFollowsDPI(t *testing.T) {
	w := NewWriter(300, nil)
	dim := w.pageDim(stripedPage(2480, 3508, color.RGBA{A: 255}))
	assert.InDelta(t, 595.2, dim.Width, 1e-9)
	assert.InDelta(t, 841.92, dim.Height, 1e-9)

	dim = NewWriter(72, nil).pageDim(stripedPage(144, 72, color.RGBA{A: 255}))
	assert.Equal(t, 144.0, dim.Width)
	assert.Equal(t, 72.0, dim.Height)
}

func TestOpaque(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{}) // fully transparent
	img.SetRGBA(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	flat := opaque(domain.Page{Image: img}).(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, flat.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, flat.RGBAAt(1, 0))
}
