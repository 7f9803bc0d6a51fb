// Package session drives one open document through select, edit and save.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
	"github.com/spherical/pdf-redactor/internal/pages"
	"github.com/spherical/pdf-redactor/internal/pdf"
	"github.com/spherical/pdf-redactor/internal/region"
	"github.com/spherical/pdf-redactor/internal/selection"
)

// Phase describes what the session is doing, for the status label.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
)

// Status is the view state sent to the presentation layer after every change.
type Status struct {
	DocumentID string        `json:"documentId,omitempty"`
	Source     string        `json:"source,omitempty"`
	Page       int           `json:"page"`
	PageCount  int           `json:"pageCount"`
	Label      string        `json:"label"`
	CanPrev    bool          `json:"canPrev"`
	CanNext    bool          `json:"canNext"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Effect     region.Effect `json:"effect"`
	Selection  *domain.Rect  `json:"selection,omitempty"`
	Phase      Phase         `json:"phase"`
	Edits      int           `json:"edits"`
}

// Options configures a Session.
type Options struct {
	Rasterizer domain.Rasterizer
	Writer     domain.DocumentWriter
	Editor     *region.Editor
	Effect     region.Effect
	MinSize    float64
	Logger     *observability.Logger
}

// Session serializes every operation on the open document. The store, the
// tracker and the editor are only touched while mu is held.
type Session struct {
	mu     sync.Mutex
	loadMu sync.Mutex

	store   *pages.Store
	tracker *selection.Tracker
	editor  *region.Editor
	effect  region.Effect

	rasterizer domain.Rasterizer
	writer     domain.DocumentWriter
	logger     *observability.Logger

	phase Phase
	edits int
}

// New creates a session with nothing loaded.
func New(opts Options) *Session {
	if opts.Editor == nil {
		opts.Editor = region.NewEditor(nil)
	}
	if opts.Effect.Kind == "" {
		opts.Effect = region.Blur(region.DefaultBlurRadius)
	}
	if opts.MinSize <= 0 {
		opts.MinSize = selection.DefaultMinSize
	}
	if opts.Logger == nil {
		opts.Logger = observability.Nop()
	}
	return &Session{
		store:      pages.NewStore(),
		tracker:    selection.NewTracker(opts.MinSize),
		editor:     opts.Editor,
		effect:     opts.Effect,
		rasterizer: opts.Rasterizer,
		writer:     opts.Writer,
		logger:     opts.Logger.WithComponent("session"),
		phase:      PhaseIdle,
	}
}

// Open loads the document at path. Paths without a document extension are
// ignored and report loaded == false with no error. On failure the previously
// open document stays available.
func (s *Session) Open(ctx context.Context, path string) (bool, error) {
	if !pdf.IsDocumentPath(path) {
		s.logger.Debug().Str("path", path).Msg("Ignoring non-PDF path")
		return false, nil
	}
	if s.rasterizer == nil {
		return false, domain.LoadError("no rasterizer configured", nil)
	}

	// Rasterizing runs outside mu so Status can report the loading phase.
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.phase = PhaseLoading
	s.mu.Unlock()

	start := time.Now()
	pageList, err := s.rasterizer.Rasterize(ctx, path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		err = s.store.Load(path, pageList)
	}
	if err != nil {
		if s.store.Empty() {
			s.phase = PhaseError
		} else {
			s.phase = PhaseIdle
		}
		s.logger.Error().Err(err).Str("path", path).Msg("Could not load PDF")
		if domain.TypeOf(err) == "" {
			err = domain.LoadError("Could not load PDF", err)
		}
		return false, err
	}

	s.tracker.Cancel()
	s.phase = PhaseIdle
	s.edits = 0

	s.logger.WithDocument(s.store.DocumentID()).Info().
		Str("path", path).
		Int("pages", s.store.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Document loaded")
	return true, nil
}

// OpenFirst loads the first document path among paths, as for a multi-file drop.
func (s *Session) OpenFirst(ctx context.Context, paths []string) (bool, error) {
	path, ok := pdf.FirstDocumentPath(paths)
	if !ok {
		return false, nil
	}
	return s.Open(ctx, path)
}

// Begin starts a selection drag at p.
func (s *Session) Begin(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Empty() {
		return
	}
	s.tracker.Begin(p)
}

// Update moves the drag to p and returns the live rectangle.
func (s *Session) Update(p domain.Point) (domain.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tracker.Update(p)
}

// End releases the drag at p. When the gesture yields a selection the
// current effect is applied to it and committed; edited reports whether the
// page changed.
func (s *Session) End(p domain.Point) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rect, ok := s.tracker.End(p)
	if !ok {
		return false, nil
	}
	return s.applyLocked(rect)
}

// Cancel abandons the current drag.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Cancel()
}

// Apply edits rect on the current page with the current effect, without a gesture.
func (s *Session) Apply(rect domain.Rect) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyLocked(rect)
}

func (s *Session) applyLocked(rect domain.Rect) (bool, error) {
	page, err := s.store.CurrentPage()
	if err != nil {
		return false, err
	}

	edited, changed := s.editor.Apply(page, rect, s.effect)
	if !changed {
		s.logger.Debug().
			Interface("rect", rect).
			Msg("Selection too small after clamping, page unchanged")
		return false, nil
	}

	if err := s.store.ReplaceCurrentPage(edited); err != nil {
		s.logger.Error().Err(err).Msg("Edit rejected")
		return false, err
	}
	s.edits++

	s.logger.Debug().
		Int("page", s.store.Index()+1).
		Str("effect", s.effect.String()).
		Interface("rect", rect).
		Msg("Region edited")
	return true, nil
}

// Next moves to the following page if there is one.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setPageLocked(s.store.Index() + 1)
}

// Prev moves to the preceding page if there is one.
func (s *Session) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setPageLocked(s.store.Index() - 1)
}

// SetPage moves to a zero-based page index. Out-of-range indexes are ignored.
func (s *Session) SetPage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setPageLocked(index)
}

func (s *Session) setPageLocked(index int) {
	before := s.store.Index()
	s.store.SetPage(index)
	if s.store.Index() != before {
		// A drag does not survive a page change.
		s.tracker.Cancel()
	}
}

// SetEffect selects the effect used by later edits.
func (s *Session) SetEffect(e region.Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.effect = e
}

// Effect returns the current effect.
func (s *Session) Effect() region.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.effect
}

// CurrentPage returns a copy of the page being viewed.
func (s *Session) CurrentPage() (domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.CurrentPage()
}

// Export returns a copy of all pages as one document.
func (s *Session) Export() (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Export()
}

// Save writes all pages to path as one PDF. The in-memory document is
// unchanged whether or not the write succeeds.
func (s *Session) Save(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Export()
	if err != nil {
		return err
	}
	if s.writer == nil {
		return domain.SaveError("no writer configured", nil)
	}

	if err := s.writer.Write(ctx, doc, path); err != nil {
		s.logger.WithDocument(doc.ID).Error().Err(err).Str("path", path).Msg("Failed to save PDF")
		if domain.TypeOf(err) == "" {
			err = domain.SaveError("Failed to save PDF", err)
		}
		return err
	}

	s.logger.WithDocument(doc.ID).Info().
		Str("path", path).
		Int("pages", len(doc.Pages)).
		Int("edits", s.edits).
		Msg("Document saved")
	return nil
}

// Status returns the current view state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		DocumentID: s.store.DocumentID(),
		Source:     s.store.Source(),
		PageCount:  s.store.Len(),
		Effect:     s.effect,
		Phase:      s.phase,
		Edits:      s.edits,
	}

	if !s.store.Empty() {
		idx := s.store.Index()
		st.Page = idx + 1
		st.CanPrev = idx > 0
		st.CanNext = idx < s.store.Len()-1
		if page, err := s.store.CurrentPage(); err == nil {
			st.Width, st.Height = page.Width(), page.Height()
		}
	}

	if live, ok := s.tracker.Live(); ok {
		st.Selection = &live
	}

	switch s.phase {
	case PhaseLoading:
		st.Label = "Loading..."
	case PhaseError:
		st.Label = "Error"
	default:
		st.Label = fmt.Sprintf("Page: %d / %d", st.Page, st.PageCount)
	}
	return st
}
