// Package catalog resolves book ids to the metadata a lifecycle record is
// created from. Catalog authoring happens elsewhere; this is a read-only
// lookup boundary.
package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("book not found")

type Book struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	Format     string `json:"format"` // physical | audio
	TotalUnits int    `json:"total_units"`
	CoverURL   string `json:"cover_url,omitempty"`
}

type Catalog interface {
	Lookup(ctx context.Context, bookID string) (Book, error)
}

// MemoryCatalog backs tests.
type MemoryCatalog map[string]Book

func (m MemoryCatalog) Lookup(_ context.Context, bookID string) (Book, error) {
	b, ok := m[bookID]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}
