package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

func TestReconciler_ApplyShelvedBook(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "reader")
	dune := env.createBook(t, "Dune", "Frank Herbert")
	reconciler := NewReconciler(env.stores, "Want to Read", env.logger)

	t.Run("applies then reports conflict on the same shelf", func(t *testing.T) {
		entry := importers.ShelvedBook{BookTitle: "Dune", ShelfName: "Read"}

		assert.Equal(t, OutcomeApplied, reconciler.ApplyShelvedBook(ctx, user.ID, entry))
		assert.Equal(t, OutcomeConflict, reconciler.ApplyShelvedBook(ctx, user.ID, entry))

		conflicts := env.logs.FilterField(zapFieldOutcome(OutcomeConflict)).All()
		require.Len(t, conflicts, 1)
		assert.Equal(t, zapcore.DebugLevel, conflicts[0].Level)
	})

	t.Run("blank shelf uses the default", func(t *testing.T) {
		entry := importers.ShelvedBook{BookID: uintPtr(dune.ID), ShelfName: "  "}
		assert.Equal(t, OutcomeApplied, reconciler.ApplyShelvedBook(ctx, user.ID, entry))

		names, err := env.library.GetShelfNames(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Read", "Want to Read"}, names)
	})

	t.Run("unknown book is skipped with a warning", func(t *testing.T) {
		env.logs.TakeAll()
		entry := importers.ShelvedBook{BookTitle: "Missing", ShelfName: "Read"}

		assert.Equal(t, OutcomeSkipped, reconciler.ApplyShelvedBook(ctx, user.ID, entry))

		logged := env.logs.FilterField(zapFieldOutcome(OutcomeSkipped)).All()
		require.Len(t, logged, 1)
		assert.Equal(t, zapcore.WarnLevel, logged[0].Level)
	})
}

func TestReconciler_ApplyReview(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "reader")
	dune := env.createBook(t, "Dune", "Frank Herbert")
	reconciler := NewReconciler(env.stores, "Want to Read", env.logger)

	entry := importers.ReviewEntry{BookTitle: "Dune", Content: "Great book", RatingValue: intPtr(4)}
	assert.Equal(t, OutcomeApplied, reconciler.ApplyReview(ctx, user.ID, entry))

	rating, err := env.ratings.GetRating(ctx, user.ID, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Value)

	t.Run("second review conflicts but its rating still applies", func(t *testing.T) {
		again := importers.ReviewEntry{BookTitle: "Dune", Content: "Changed my mind", RatingValue: intPtr(2)}
		assert.Equal(t, OutcomeConflict, reconciler.ApplyReview(ctx, user.ID, again))

		stored, err := env.reviews.GetReviewsForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "Great book", stored[0].Content)

		rating, err := env.ratings.GetRating(ctx, user.ID, dune.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, rating.Value)
	})

	t.Run("out of range rating does not undo the review", func(t *testing.T) {
		other := env.createBook(t, "Emma", "Jane Austen")
		entry := importers.ReviewEntry{BookID: uintPtr(other.ID), Content: "Witty", RatingValue: intPtr(9)}

		assert.Equal(t, OutcomeApplied, reconciler.ApplyReview(ctx, user.ID, entry))

		_, err := env.ratings.GetRating(ctx, user.ID, other.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("unresolved book is skipped", func(t *testing.T) {
		entry := importers.ReviewEntry{BookTitle: "Nope", Content: "?"}
		assert.Equal(t, OutcomeSkipped, reconciler.ApplyReview(ctx, user.ID, entry))
	})
}

func TestReconciler_ApplyRating(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "reader")
	dune := env.createBook(t, "Dune", "Frank Herbert")
	reconciler := NewReconciler(env.stores, "Want to Read", env.logger)

	assert.Equal(t, OutcomeApplied, reconciler.ApplyRating(ctx, user.ID, importers.RatingEntry{BookTitle: "Dune", Value: 3}))
	assert.Equal(t, OutcomeApplied, reconciler.ApplyRating(ctx, user.ID, importers.RatingEntry{BookID: uintPtr(dune.ID), Value: 5}))

	stored, err := env.ratings.GetRatingsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].Value)

	for _, value := range []int{0, 6, -1} {
		assert.Equal(t, OutcomeSkipped, reconciler.ApplyRating(ctx, user.ID, importers.RatingEntry{BookTitle: "Dune", Value: value}))
	}
	rating, err := env.ratings.GetRating(ctx, user.ID, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, rating.Value)
}

func TestReconciler_ApplyProfile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "reader")
	reconciler := NewReconciler(env.stores, "Want to Read", env.logger)

	info := importers.UserInfo{Username: "someone-else", Email: "reader@example.com", FirstName: "Ada", Bio: "Likes books"}
	assert.Equal(t, OutcomeApplied, reconciler.ApplyProfile(ctx, user, info))

	stored, err := env.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", stored.Username)
	assert.Equal(t, "Ada", stored.FirstName)
	assert.Empty(t, stored.LastName)
	assert.Equal(t, "Likes books", stored.Bio)

	mismatch := env.logs.FilterMessage("snapshot username differs from target user").All()
	require.Len(t, mismatch, 1)
	assert.Equal(t, zapcore.WarnLevel, mismatch[0].Level)

	t.Run("nothing new is a skip", func(t *testing.T) {
		assert.Equal(t, OutcomeSkipped, reconciler.ApplyProfile(ctx, user, importers.UserInfo{FirstName: "Ada"}))
	})
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "conflict", OutcomeConflict.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
