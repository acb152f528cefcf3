package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

// Outcome is the result of applying one snapshot entry.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	// OutcomeConflict means the store already held the entry.
	OutcomeConflict
	// OutcomeSkipped covers unresolved books and invalid values.
	OutcomeSkipped
	// OutcomeFailed is any other store error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeConflict:
		return "conflict"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reconciler applies snapshot entries to the store one at a time. Every call
// is a separate store write, so a failing entry never touches another one.
// None of the Apply methods return an error; the outcome is logged and returned.
type Reconciler struct {
	resolver     *BookResolver
	users        UserStore
	shelves      ShelfStore
	reviews      ReviewStore
	ratings      RatingStore
	defaultShelf string
	logger       *zap.Logger
}

func NewReconciler(stores Stores, defaultShelf string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		resolver:     NewBookResolver(stores.Books),
		users:        stores.Users,
		shelves:      stores.Shelves,
		reviews:      stores.Reviews,
		ratings:      stores.Ratings,
		defaultShelf: defaultShelf,
		logger:       logger,
	}
}

// withFields returns a copy whose log lines carry fields.
func (r *Reconciler) withFields(fields ...zap.Field) *Reconciler {
	clone := *r
	clone.logger = r.logger.With(fields...)
	return &clone
}

// ApplyShelvedBook puts the referenced book on the entry's shelf, or on the
// default shelf when the entry has none.
func (r *Reconciler) ApplyShelvedBook(ctx context.Context, userID uint, entry importers.ShelvedBook) Outcome {
	log := r.logger.With(zap.String("kind", "shelf"), zap.Uint("user_id", userID), zap.String("book_title", entry.BookTitle))

	book, outcome := r.resolve(ctx, log, entry.BookID, entry.BookTitle)
	if book == nil {
		return outcome
	}

	shelf := strings.TrimSpace(entry.ShelfName)
	if shelf == "" {
		shelf = r.defaultShelf
	}

	_, err := r.shelves.AddBookToShelf(ctx, userID, book.ID, shelf)
	return classify(log.With(zap.Uint("book_id", book.ID), zap.String("shelf", shelf)), err)
}

// ApplyReview creates the review and, when the entry carries a valid rating,
// upserts that rating as a separate write. The rating is attempted even if the
// review already existed.
func (r *Reconciler) ApplyReview(ctx context.Context, userID uint, entry importers.ReviewEntry) Outcome {
	log := r.logger.With(zap.String("kind", "review"), zap.Uint("user_id", userID), zap.String("book_title", entry.BookTitle))

	book, outcome := r.resolve(ctx, log, entry.BookID, entry.BookTitle)
	if book == nil {
		return outcome
	}
	log = log.With(zap.Uint("book_id", book.ID))

	_, err := r.reviews.CreateReview(ctx, userID, book.ID, entry.Content)
	outcome = classify(log, err)

	if entry.RatingValue != nil {
		value := *entry.RatingValue
		if !entities.ValidRating(value) {
			log.Warn("ignoring out of range review rating",
				zap.String("outcome", OutcomeSkipped.String()), zap.Int("value", value))
		} else if _, err := r.ratings.UpsertRating(ctx, userID, book.ID, value); err != nil {
			log.Warn("failed to apply review rating",
				zap.String("outcome", OutcomeFailed.String()), zap.Int("value", value), zap.Error(err))
		}
	}

	return outcome
}

// ApplyRating creates or overwrites the user's rating of the book. Values
// outside [MinRatingValue, MaxRatingValue] are skipped, never clamped.
func (r *Reconciler) ApplyRating(ctx context.Context, userID uint, entry importers.RatingEntry) Outcome {
	log := r.logger.With(zap.String("kind", "rating"), zap.Uint("user_id", userID), zap.String("book_title", entry.BookTitle))

	if !entities.ValidRating(entry.Value) {
		log.Warn("skipping rating with invalid value",
			zap.String("outcome", OutcomeSkipped.String()), zap.Int("value", entry.Value))
		return OutcomeSkipped
	}

	book, outcome := r.resolve(ctx, log, entry.BookID, entry.BookTitle)
	if book == nil {
		return outcome
	}

	_, err := r.ratings.UpsertRating(ctx, userID, book.ID, entry.Value)
	return classify(log.With(zap.Uint("book_id", book.ID), zap.Int("value", entry.Value)), err)
}

// ApplyProfile copies the non-empty name and bio fields onto the user.
// Username and email are never changed; a mismatch is only logged.
func (r *Reconciler) ApplyProfile(ctx context.Context, user *entities.User, info importers.UserInfo) Outcome {
	log := r.logger.With(zap.String("kind", "profile"), zap.Uint("user_id", user.ID))

	if info.Username != "" && info.Username != user.Username {
		log.Warn("snapshot username differs from target user",
			zap.String("snapshot_username", info.Username), zap.String("username", user.Username))
	}
	if info.Email != "" && !strings.EqualFold(info.Email, user.Email) {
		log.Warn("snapshot email differs from target user",
			zap.String("snapshot_email", info.Email), zap.String("email", user.Email))
	}

	firstName := mergeField(user.FirstName, info.FirstName)
	lastName := mergeField(user.LastName, info.LastName)
	bio := mergeField(user.Bio, info.Bio)
	if firstName == user.FirstName && lastName == user.LastName && bio == user.Bio {
		return OutcomeSkipped
	}

	if err := r.users.UpdateProfile(ctx, user.ID, firstName, lastName, bio); err != nil {
		log.Warn("failed to merge profile", zap.String("outcome", OutcomeFailed.String()), zap.Error(err))
		return OutcomeFailed
	}
	user.FirstName, user.LastName, user.Bio = firstName, lastName, bio
	return OutcomeApplied
}

func (r *Reconciler) resolve(ctx context.Context, log *zap.Logger, bookID *uint, title string) (*entities.Book, Outcome) {
	book, err := r.resolver.Resolve(ctx, bookID, title)
	switch {
	case err == nil:
		return book, OutcomeApplied
	case errors.Is(err, entities.ErrNotFound):
		log.Warn("book not found, skipping entry", zap.String("outcome", OutcomeSkipped.String()), zap.Error(err))
		return nil, OutcomeSkipped
	default:
		log.Warn("failed to resolve book", zap.String("outcome", OutcomeFailed.String()), zap.Error(err))
		return nil, OutcomeFailed
	}
}

// classify maps the error of a store write to an outcome.
func classify(log *zap.Logger, err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, entities.ErrConflict):
		log.Debug("entry already present", zap.String("outcome", OutcomeConflict.String()))
		return OutcomeConflict
	default:
		log.Warn("failed to apply entry", zap.String("outcome", OutcomeFailed.String()), zap.Error(err))
		return OutcomeFailed
	}
}

func mergeField(current, incoming string) string {
	if strings.TrimSpace(incoming) == "" {
		return current
	}
	return strings.TrimSpace(incoming)
}
