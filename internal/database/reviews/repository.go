// Package reviews provides database operations for book reviews.
// A user holds at most one review per book.
package reviews

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateReview stores a review of bookID written by userID.
// Returns entities.ErrConflict when the user already reviewed the book.
func (r *Repository) CreateReview(ctx context.Context, userID, bookID uint, content string) (*entities.Review, error) {
	review := &entities.Review{
		UserID:  userID,
		BookID:  bookID,
		Content: content,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Review{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("review of book %d: %w", bookID, entities.ErrConflict)
		}
		return tx.Create(review).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("review of book %d: %w", bookID, entities.ErrConflict)
		}
		return nil, err
	}
	return review, nil
}

// GetReviewsForUser returns all reviews written by a user with their books.
func (r *Repository) GetReviewsForUser(ctx context.Context, userID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&reviews).Error
	return reviews, err
}
