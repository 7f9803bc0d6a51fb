// Package selection turns pointer drag gestures into page rectangles.
package selection

import "github.com/spherical/pdf-redactor/internal/domain"

// DefaultMinSize is the smallest drag extent, in scene units, that produces a selection.
const DefaultMinSize = 5.0

// Tracker is a two-state machine (idle, dragging) fed by Begin, Update and End.
type Tracker struct {
	minSize  float64
	dragging bool
	anchor   domain.Point
	live     domain.Rect
}

// NewTracker creates an idle tracker. A negative minSize falls back to DefaultMinSize.
func NewTracker(minSize float64) *Tracker {
	if minSize < 0 {
		minSize = DefaultMinSize
	}
	return &Tracker{minSize: minSize}
}

// Begin starts a drag anchored at p. A Begin while already dragging re-anchors.
func (t *Tracker) Begin(p domain.Point) {
	t.dragging = true
	t.anchor = p
	t.live = domain.NormalizedRect(p, p)
}

// Update moves the free corner to p and returns the live rectangle.
// It reports false when no drag is in progress.
func (t *Tracker) Update(p domain.Point) (domain.Rect, bool) {
	if !t.dragging {
		return domain.Rect{}, false
	}
	t.live = domain.NormalizedRect(t.anchor, p)
	return t.live, true
}

// End finishes the drag at p and returns the final rectangle. It reports
// false when idle, or when the drag moved less than the minimum size along
// both axes.
func (t *Tracker) End(p domain.Point) (domain.Rect, bool) {
	if !t.dragging {
		return domain.Rect{}, false
	}
	t.dragging = false
	t.live = domain.Rect{}

	rect := domain.NormalizedRect(t.anchor, p)
	if rect.W < t.minSize && rect.H < t.minSize {
		return domain.Rect{}, false
	}
	return rect, true
}

// Cancel abandons a drag without producing a selection.
func (t *Tracker) Cancel() {
	t.dragging = false
	t.live = domain.Rect{}
}

// Dragging reports whether a gesture is in progress.
func (t *Tracker) Dragging() bool {
	return t.dragging
}

// Live returns the rectangle to draw while dragging.
func (t *Tracker) Live() (domain.Rect, bool) {
	return t.live, t.dragging
}

// MinSize returns the configured threshold.
func (t *Tracker) MinSize() float64 {
	return t.minSize
}
