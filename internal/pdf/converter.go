package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
)

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 300

// Converter implements domain.Rasterizer using go-fitz
type Converter struct {
	dpi       int
	validator *Validator
	logger    *observability.Logger
}

// NewConverter creates a new PDF converter rendering at dpi
func NewConverter(dpi int, logger *observability.Logger) *Converter {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Converter{
		dpi:       dpi,
		validator: NewValidator(logger),
		logger:    logger.WithComponent("converter"),
	}
}

// Rasterize renders every page of the PDF at path into RGBA pages
func (c *Converter) Rasterize(ctx context.Context, path string) ([]domain.Page, error) {
	if err := c.validator.ValidatePDFPath(path); err != nil {
		return nil, domain.LoadError("Cannot load PDF", err)
	}
	if err := c.validator.ValidateDPI(c.dpi); err != nil {
		return nil, domain.LoadError("Cannot load PDF", err)
	}

	start := time.Now()

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.LoadError("Failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.LoadError("PDF has no pages", nil)
	}

	pages := make([]domain.Page, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, domain.LoadError("Load cancelled", ctx.Err())
		default:
		}

		img, err := doc.ImageDPI(pageNum, float64(c.dpi))
		if err != nil {
			return nil, domain.LoadError(fmt.Sprintf("Failed to render page %d", pageNum+1), err)
		}

		page := domain.NewPage(img)
		c.logger.Debug().
			Int("page", pageNum+1).
			Int("width", page.Width()).
			Int("height", page.Height()).
			Msg("Rendered page")

		pages = append(pages, page)
	}

	c.logger.Info().
		Str("path", path).
		Int("pages", len(pages)).
		Int("dpi", c.dpi).
		Dur("elapsed", time.Since(start)).
		Msg("Rasterized PDF")

	return pages, nil
}
