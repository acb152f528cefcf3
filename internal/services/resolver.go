package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookResolver maps a snapshot reference (id and/or title) to a catalog book.
type BookResolver struct {
	catalog BookCatalog
}

func NewBookResolver(catalog BookCatalog) *BookResolver {
	return &BookResolver{catalog: catalog}
}

// Resolve looks the book up by id first. When there is no id, or the id is
// unknown, it searches by title and accepts only a case-insensitive exact
// title match. Returns entities.ErrNotFound when nothing resolves.
func (r *BookResolver) Resolve(ctx context.Context, bookID *uint, title string) (*entities.Book, error) {
	if bookID != nil && *bookID != 0 {
		book, err := r.catalog.GetBookByID(ctx, *bookID)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, entities.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up book %d: %w", *bookID, err)
		}
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("book reference without title: %w", entities.ErrNotFound)
	}

	candidates, err := r.catalog.SearchBooks(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to search books for %q: %w", title, err)
	}
	key := entities.TitleKey(title)
	for i := range candidates {
		if entities.TitleKey(candidates[i].Title) == key {
			return &candidates[i], nil
		}
	}

	return nil, fmt.Errorf("book %q: %w", title, entities.ErrNotFound)
}
