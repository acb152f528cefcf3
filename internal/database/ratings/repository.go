// Package ratings provides database operations for book ratings.
// A user holds at most one rating per book; writing again overwrites it.
package ratings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles rating database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertRating creates the (user, book) rating or overwrites its value.
func (r *Repository) UpsertRating(ctx context.Context, userID, bookID uint, value int) (*entities.Rating, error) {
	if !entities.ValidRating(value) {
		return nil, fmt.Errorf("rating value %d outside [%d,%d]", value, entities.MinRatingValue, entities.MaxRatingValue)
	}

	var stored entities.Rating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rating := &entities.Rating{UserID: userID, BookID: bookID, Value: value}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(rating).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetRating returns the rating a user gave a book.
func (r *Repository) GetRating(ctx context.Context, userID, bookID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rating of book %d: %w", bookID, entities.ErrNotFound)
		}
		return nil, err
	}
	return &rating, nil
}

// GetRatingsForUser returns all ratings given by a user with their books.
func (r *Repository) GetRatingsForUser(ctx context.Context, userID uint) ([]entities.Rating, error) {
	var ratings []entities.Rating
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&ratings).Error
	return ratings, err
}
