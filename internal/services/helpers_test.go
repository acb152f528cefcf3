package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/library"
	"github.com/mrlokans/bookshelf/internal/database/ratings"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type testEnv struct {
	db      *database.Database
	stores  Stores
	users   *users.Repository
	books   *books.Repository
	library *library.Repository
	reviews *reviews.Repository
	ratings *ratings.Repository
	logs    *observer.ObservedLogs
	logger  *zap.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "services.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	env := &testEnv{
		db:      db,
		users:   users.NewRepository(db.DB),
		books:   books.NewRepository(db.DB),
		library: library.NewRepository(db.DB),
		reviews: reviews.NewRepository(db.DB),
		ratings: ratings.NewRepository(db.DB),
		logs:    logs,
		logger:  zap.New(core),
	}
	env.stores = Stores{
		Users:   env.users,
		Books:   env.books,
		Shelves: env.library,
		Reviews: env.reviews,
		Ratings: env.ratings,
	}
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *entities.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), username, username+"@example.com")
	require.NoError(t, err)
	return user
}

func (e *testEnv) createBook(t *testing.T, title, author string) *entities.Book {
	t.Helper()
	book, err := e.books.CreateBook(context.Background(), title, author)
	require.NoError(t, err)
	return book
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.DB.Model(model).Count(&n).Error)
	return n
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func zapFieldOutcome(o Outcome) zap.Field {
	return zap.String("outcome", o.String())
}
