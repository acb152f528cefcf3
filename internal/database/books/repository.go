// Package books provides read access to the shared book catalog.
//
// This package implements the BookCatalog interface defined in
// internal/services/interfaces.go.
//
// # Interface Implementation
//
//	var _ services.BookCatalog = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(ctx, 123)
//	matches, err := repo.SearchBooks(ctx, "dune")
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultSearchLimit caps the number of rows a title search returns.
const DefaultSearchLimit = 50

// Repository handles catalog database operations.
type Repository struct {
	db          *gorm.DB
	searchLimit int
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, searchLimit: DefaultSearchLimit}
}

// CreateBook adds a book to the catalog.
func (r *Repository) CreateBook(ctx context.Context, title, author string) (*entities.Book, error) {
	book := &entities.Book{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
	}
	if book.Title == "" {
		return nil, fmt.Errorf("book title is required")
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// GetBookByID retrieves a catalog book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %d: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}
	return &book, nil
}

// SearchBooks returns books whose title contains query (case-insensitive).
// Titles equal to query come first, then the rest by ID.
func (r *Repository) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := entities.TitleKey(query)
	var books []entities.Book
	searchPattern := "%" + escapeLike(key) + "%"
	err := r.db.WithContext(ctx).
		Where("title_key LIKE ? ESCAPE '\\'", searchPattern).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN title_key = ? THEN 0 ELSE 1 END, id ASC",
			Vars:               []any{key},
			WithoutParentheses: true,
		}}).
		Limit(r.searchLimit).
		Find(&books).Error
	return books, err
}

// escapeLike neutralises LIKE wildcards that appear in user supplied titles.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
