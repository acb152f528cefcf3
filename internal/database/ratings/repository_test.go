package ratings

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_ratings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Rating{}))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return db, NewRepository(db), cleanup
}

func createFixtures(t *testing.T, db *gorm.DB) (*entities.User, *entities.Book) {
	user := &entities.User{Username: "reader", Email: "reader@example.com", Token: "tok"}
	require.NoError(t, db.Create(user).Error)
	book := &entities.Book{Title: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.Create(book).Error)
	return user, book
}

func TestRepository_UpsertRating_Creates(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	user, book := createFixtures(t, db)

	rating, err := repo.UpsertRating(ctx, user.ID, book.ID, 4)
	require.NoError(t, err)
	assert.NotZero(t, rating.ID)
	assert.Equal(t, 4, rating.Value)
}

func TestRepository_UpsertRating_Overwrites(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	user, book := createFixtures(t, db)

	first, err := repo.UpsertRating(ctx, user.ID, book.ID, 2)
	require.NoError(t, err)
	second, err := repo.UpsertRating(ctx, user.ID, book.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Value)

	var count int64
	db.Model(&entities.Rating{}).Count(&count)
	assert.Equal(t, int64(1), count)

	stored, err := repo.GetRating(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Value)
}

func TestRepository_UpsertRating_RejectsOutOfRange(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	user, book := createFixtures(t, db)

	for _, v := range []int{0, 6, -1} {
		_, err := repo.UpsertRating(ctx, user.ID, book.ID, v)
		assert.Error(t, err, "value %d", v)
	}

	_, err := repo.GetRating(ctx, user.ID, book.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRepository_GetRatingsForUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	user, book := createFixtures(t, db)

	_, err := repo.UpsertRating(ctx, user.ID, book.ID, 3)
	require.NoError(t, err)

	ratings, err := repo.GetRatingsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "Dune", ratings[0].Book.Title)
}
