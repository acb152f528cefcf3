package services

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// UserStore looks up the target user and merges imported profile fields.
type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uint, firstName, lastName, bio string) error
}

// BookCatalog resolves snapshot references against the shared catalog.
type BookCatalog interface {
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	SearchBooks(ctx context.Context, query string) ([]entities.Book, error)
}

// ShelfStore adds books to a user's named shelves.
// AddBookToShelf returns entities.ErrConflict when the book is already on that shelf.
type ShelfStore interface {
	AddBookToShelf(ctx context.Context, userID, bookID uint, shelfName string) (*entities.UserBook, error)
	GetShelvedBooks(ctx context.Context, userID uint) ([]entities.UserBook, error)
}

// ReviewStore creates reviews. CreateReview returns entities.ErrConflict when
// the user already reviewed the book.
type ReviewStore interface {
	CreateReview(ctx context.Context, userID, bookID uint, content string) (*entities.Review, error)
	GetReviewsForUser(ctx context.Context, userID uint) ([]entities.Review, error)
}

// RatingStore creates or overwrites the single rating a user holds per book.
type RatingStore interface {
	UpsertRating(ctx context.Context, userID, bookID uint, value int) (*entities.Rating, error)
	GetRatingsForUser(ctx context.Context, userID uint) ([]entities.Rating, error)
}

// SessionRecorder persists one ImportSession row per import call.
type SessionRecorder interface {
	CreateImportSession(ctx context.Context, userID uint, format string) (*entities.ImportSession, error)
	UpdateImportSession(ctx context.Context, session *entities.ImportSession) error
}

// ImportAuditor and ExportAuditor receive one event per call. Implementations
// must not block.
type ImportAuditor interface {
	LogImport(userID uint, format, requestID, description string, metadata map[string]any, partial bool, err error)
}

type ExportAuditor interface {
	LogExport(userID uint, format, description string, err error)
}

// PayloadArchiver keeps a copy of the raw import payload and returns its name.
type PayloadArchiver interface {
	Archive(format string, payload []byte) (string, error)
}

// Stores groups the collaborators the import and export paths need.
type Stores struct {
	Users   UserStore
	Books   BookCatalog
	Shelves ShelfStore
	Reviews ReviewStore
	Ratings RatingStore
}
