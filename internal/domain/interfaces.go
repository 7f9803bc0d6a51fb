package domain

import "context"

// Rasterizer defines the interface for converting a document file into pages
type Rasterizer interface {
	// Rasterize renders every page of the file at path, in order
	Rasterize(ctx context.Context, path string) ([]Page, error)
}

// DocumentWriter defines the interface for writing pages back out as one document
type DocumentWriter interface {
	// Write encodes doc as a single multi-page file at path
	Write(ctx context.Context, doc Document, path string) error
}
