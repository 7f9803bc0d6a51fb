// Package pages holds the in-memory page sequence of the open document.
package pages

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spherical/pdf-redactor/internal/domain"
)

// Store owns the rasterized pages of at most one document and the index of
// the page being viewed. It is not safe for concurrent use.
type Store struct {
	doc   *domain.Document
	index int
}

// NewStore creates an empty page store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the held document with pages and resets the view to the first page.
// An empty page list is rejected and leaves the current document untouched.
func (s *Store) Load(source string, pages []domain.Page) error {
	if len(pages) == 0 {
		return domain.LoadError(fmt.Sprintf("document %s has no pages", source), nil)
	}

	held := make([]domain.Page, len(pages))
	for i, p := range pages {
		if p.Image == nil {
			return domain.LoadError(fmt.Sprintf("page %d of %s has no pixel data", i+1, source), nil)
		}
		held[i] = p.Clone()
	}

	s.doc = &domain.Document{
		ID:     uuid.NewString(),
		Source: source,
		Pages:  held,
	}
	s.index = 0
	return nil
}

// Empty reports whether no document is loaded.
func (s *Store) Empty() bool {
	return s.doc == nil || len(s.doc.Pages) == 0
}

// Len returns the number of loaded pages.
func (s *Store) Len() int {
	if s.doc == nil {
		return 0
	}
	return len(s.doc.Pages)
}

// Index returns the zero-based index of the current page.
func (s *Store) Index() int {
	return s.index
}

// DocumentID returns the id assigned at load, or "" when empty.
func (s *Store) DocumentID() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.ID
}

// Source returns the path the current document was loaded from.
func (s *Store) Source() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.Source
}

// CurrentPage returns a copy of the page at the current index.
func (s *Store) CurrentPage() (domain.Page, error) {
	if s.Empty() {
		return domain.Page{}, domain.NoDocumentError("no document loaded")
	}
	return s.doc.Pages[s.index].Clone(), nil
}

// SetPage moves the view to index. Out-of-range indexes are ignored.
func (s *Store) SetPage(index int) {
	if index < 0 || index >= s.Len() {
		return
	}
	s.index = index
}

// ReplaceCurrentPage overwrites the current page. The replacement must have
// the same dimensions as the page it replaces.
func (s *Store) ReplaceCurrentPage(page domain.Page) error {
	if s.Empty() {
		return domain.NoDocumentError("no document loaded")
	}

	current := s.doc.Pages[s.index]
	if page.Image == nil || !current.SameSize(page) {
		return domain.DimensionMismatchError(fmt.Sprintf(
			"page %d is %dx%d, replacement is %dx%d",
			s.index+1, current.Width(), current.Height(), page.Width(), page.Height()))
	}

	s.doc.Pages[s.index] = page.Clone()
	return nil
}

// Export returns the full page sequence as a single document.
func (s *Store) Export() (domain.Document, error) {
	if s.Empty() {
		return domain.Document{}, domain.EmptyDocumentError("no pages loaded")
	}

	out := domain.Document{
		ID:     s.doc.ID,
		Source: s.doc.Source,
		Pages:  make([]domain.Page, len(s.doc.Pages)),
	}
	for i, p := range s.doc.Pages {
		out.Pages[i] = p.Clone()
	}
	return out, nil
}
