package services

import (
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/library"
	"github.com/mrlokans/bookshelf/internal/database/ratings"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/users"
)

// NewStores backs every collaborator with its gorm repository.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Users:   users.NewRepository(db),
		Books:   books.NewRepository(db),
		Shelves: library.NewRepository(db),
		Reviews: reviews.NewRepository(db),
		Ratings: ratings.NewRepository(db),
	}
}
