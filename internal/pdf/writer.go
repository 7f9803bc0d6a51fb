package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
)

// Writer implements domain.DocumentWriter using pdfcpu. Each page becomes
// one PDF page sized to the image at the export resolution.
type Writer struct {
	dpi    int
	logger *observability.Logger
}

// NewWriter creates a writer placing images at dpi
func NewWriter(dpi int, logger *observability.Logger) *Writer {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Writer{
		dpi:    dpi,
		logger: logger.WithComponent("writer"),
	}
}

// Write encodes doc as a single multi-page PDF at path. The file appears
// only once it has been fully written.
func (w *Writer) Write(ctx context.Context, doc domain.Document, path string) error {
	if len(doc.Pages) == 0 {
		return domain.EmptyDocumentError("no pages to save")
	}
	if strings.TrimSpace(path) == "" {
		return domain.SaveError("destination path cannot be empty", nil)
	}

	start := time.Now()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdf-redactor-*.pdf")
	if err != nil {
		return domain.SaveError(fmt.Sprintf("cannot write to %s", filepath.Dir(path)), err)
	}
	tmpPath := tmp.Name()

	if err := w.encode(ctx, doc, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return domain.SaveError("Failed to flush PDF", err)
	}

	count, err := api.PageCountFile(tmpPath)
	if err != nil || count != len(doc.Pages) {
		os.Remove(tmpPath)
		if err == nil {
			err = fmt.Errorf("wrote %d pages, expected %d", count, len(doc.Pages))
		}
		return domain.SaveError("Written PDF failed verification", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return domain.SaveError(fmt.Sprintf("cannot move PDF into place at %s", path), err)
	}

	w.logger.Info().
		Str("path", path).
		Int("pages", count).
		Int("dpi", w.dpi).
		Dur("elapsed", time.Since(start)).
		Msg("Saved PDF")

	return nil
}

// Stream encodes doc as a PDF stream to out.
func (w *Writer) Stream(ctx context.Context, doc domain.Document, out io.Writer) error {
	if len(doc.Pages) == 0 {
		return domain.EmptyDocumentError("no pages to save")
	}
	return w.encode(ctx, doc, out)
}

func (w *Writer) encode(ctx context.Context, doc domain.Document, out io.Writer) error {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.IMPORTIMAGES

	pdfCtx, err := pdfcpu.CreateContextWithXRefTable(conf, w.pageDim(doc.Pages[0]))
	if err != nil {
		return domain.SaveError("Failed to create PDF", err)
	}
	pagesRef, err := pdfCtx.Pages()
	if err != nil {
		return domain.SaveError("Failed to create PDF", err)
	}
	pagesDict, err := pdfCtx.DereferenceDict(*pagesRef)
	if err != nil {
		return domain.SaveError("Failed to create PDF", err)
	}

	for i, page := range doc.Pages {
		select {
		case <-ctx.Done():
			return domain.SaveError("Save cancelled", ctx.Err())
		default:
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, opaque(page)); err != nil {
			return domain.SaveError(fmt.Sprintf("Failed to encode page %d", i+1), err)
		}

		refs, err := pdfcpu.NewPagesForImage(pdfCtx.XRefTable, &buf, pagesRef, w.importFor(page))
		if err != nil {
			return domain.SaveError(fmt.Sprintf("Failed to add page %d", i+1), err)
		}
		for _, ref := range refs {
			if err := pdfCtx.SetValid(*ref); err != nil {
				return domain.SaveError(fmt.Sprintf("Failed to add page %d", i+1), err)
			}
			if err := model.AppendPageTree(ref, 1, pagesDict); err != nil {
				return domain.SaveError(fmt.Sprintf("Failed to add page %d", i+1), err)
			}
			pdfCtx.PageCount++
		}
	}

	if err := api.Write(pdfCtx, out, conf); err != nil {
		return domain.SaveError("Failed to write PDF", err)
	}
	return nil
}

// pageDim is the physical size of page in points at the export resolution,
// so rasterizing at the same resolution restores the pixel size.
func (w *Writer) pageDim(page domain.Page) *types.Dim {
	scale := 72 / float64(w.dpi)
	return &types.Dim{
		Width:  float64(page.Width()) * scale,
		Height: float64(page.Height()) * scale,
	}
}

// importFor places the image at DPI scale filling a page of the same size.
func (w *Writer) importFor(page domain.Page) *pdfcpu.Import {
	return &pdfcpu.Import{
		PageDim:  w.pageDim(page),
		UserDim:  true,
		DPI:      w.dpi,
		Pos:      types.BottomLeft,
		Scale:    1,
		ScaleAbs: true,
		InpUnit:  types.POINTS,
	}
}

// opaque flattens a page onto white so the PNG is encoded as plain RGB.
func opaque(page domain.Page) image.Image {
	b := page.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), page.Image, b.Min, draw.Over)
	return dst
}
