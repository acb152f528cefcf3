// Package library provides database operations for the books a user keeps
// on named shelves.
//
// # Usage
//
//	repo := library.NewRepository(db)
//	entry, err := repo.AddBookToShelf(ctx, userID, bookID, "Read")
//	if errors.Is(err, entities.ErrConflict) {
//		// already on that shelf
//	}
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles shelf entry database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new library repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddBookToShelf places a book on one of the user's shelves.
// Returns entities.ErrConflict when the book is already on that shelf.
func (r *Repository) AddBookToShelf(ctx context.Context, userID, bookID uint, shelfName string) (*entities.UserBook, error) {
	shelfName = strings.TrimSpace(shelfName)
	if shelfName == "" {
		return nil, fmt.Errorf("shelf name is required")
	}

	entry := &entities.UserBook{
		UserID:    userID,
		BookID:    bookID,
		ShelfName: shelfName,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.UserBook{}).
			Where("user_id = ? AND book_id = ? AND shelf_name = ?", userID, bookID, shelfName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("book %d on shelf %q: %w", bookID, shelfName, entities.ErrConflict)
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("book %d on shelf %q: %w", bookID, shelfName, entities.ErrConflict)
		}
		return nil, err
	}
	return entry, nil
}

// GetShelvedBooks returns every shelf entry of a user with its book, in insertion order.
func (r *Repository) GetShelvedBooks(ctx context.Context, userID uint) ([]entities.UserBook, error) {
	var entries []entities.UserBook
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// GetShelfNames returns the distinct shelf names a user has books on.
func (r *Repository) GetShelfNames(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&entities.UserBook{}).
		Where("user_id = ?", userID).
		Distinct("shelf_name").
		Order("shelf_name ASC").
		Pluck("shelf_name", &names).Error
	return names, err
}
