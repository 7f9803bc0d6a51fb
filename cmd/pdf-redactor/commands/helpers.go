package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spherical/pdf-redactor/internal/config"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
	"github.com/spherical/pdf-redactor/internal/pdf"
	"github.com/spherical/pdf-redactor/internal/region"
	"github.com/spherical/pdf-redactor/internal/session"
)

// pageRegion is one --region flag value. Page is 1-based.
type pageRegion struct {
	Page int
	Rect domain.Rect
}

// parseRegion parses PAGE:X,Y,W,H in page pixels at the render DPI.
func parseRegion(value string) (pageRegion, error) {
	pagePart, rectPart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return pageRegion{}, fmt.Errorf("region %q: want PAGE:X,Y,W,H", value)
	}

	page, err := strconv.Atoi(strings.TrimSpace(pagePart))
	if err != nil || page < 1 {
		return pageRegion{}, fmt.Errorf("region %q: page must be a positive integer", value)
	}

	fields := strings.Split(rectPart, ",")
	if len(fields) != 4 {
		return pageRegion{}, fmt.Errorf("region %q: want 4 comma-separated numbers, got %d", value, len(fields))
	}

	var nums [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return pageRegion{}, fmt.Errorf("region %q: %w", value, err)
		}
		nums[i] = n
	}
	if nums[2] < 0 || nums[3] < 0 {
		return pageRegion{}, fmt.Errorf("region %q: width and height cannot be negative", value)
	}

	return pageRegion{
		Page: page,
		Rect: domain.Rect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]},
	}, nil
}

func parseRegions(values []string) ([]pageRegion, error) {
	regions := make([]pageRegion, 0, len(values))
	for _, v := range values {
		r, err := parseRegion(v)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// effectFromConfig resolves name, or the configured default when name is empty.
func effectFromConfig(c *config.Config, name string) (region.Effect, error) {
	if name == "" {
		name = c.Effects.Default
	}
	return region.ParseEffect(name, c.Effects.BlurRadius, c.Effects.MosaicBlock)
}

// newSession wires the rasterizer, writer and editor described by c.
func newSession(c *config.Config, effect region.Effect, log *observability.Logger) (*session.Session, *pdf.Writer) {
	editor := region.NewEditor(nil)
	if c.Effects.Seed != 0 {
		editor = region.NewSeededEditor(c.Effects.Seed)
	}

	writer := pdf.NewWriter(c.ExportDPI(), log)
	sess := session.New(session.Options{
		Rasterizer: pdf.NewConverter(c.Render.DPI, log),
		Writer:     writer,
		Editor:     editor,
		Effect:     effect,
		MinSize:    c.Selection.MinSize,
		Logger:     log,
	})
	return sess, writer
}
