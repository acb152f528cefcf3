package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

type recordedImport struct {
	userID    uint
	format    string
	requestID string
	metadata  map[string]any
	partial   bool
	err       error
}

type fakeAuditor struct {
	imports []recordedImport
	exports []error
}

func (f *fakeAuditor) LogImport(userID uint, format, requestID, _ string, metadata map[string]any, partial bool, err error) {
	f.imports = append(f.imports, recordedImport{userID: userID, format: format, requestID: requestID, metadata: metadata, partial: partial, err: err})
}

func (f *fakeAuditor) LogExport(_ uint, _, _ string, err error) {
	f.exports = append(f.exports, err)
}

type fakeArchiver struct {
	payloads []string
	err      error
}

func (f *fakeArchiver) Archive(format string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, format+":"+string(payload))
	return fmt.Sprintf("payload-%d.%s", len(f.payloads), format), nil
}

func newTestImportService(env *testEnv) *ImportService {
	return NewImportService(env.stores, "Want to Read", env.logger).WithSessions(env.db)
}

func TestImportService_MalformedJSONChangesNothing(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	env.createBook(t, "Dune", "Frank Herbert")
	auditor := &fakeAuditor{}
	svc := newTestImportService(env).WithAuditor(auditor)

	inputs := []string{
		`{"books": [{"bookTitle": "Dune", "shelfName": "Read"}]`,
		`not json at all`,
		`["Dune"]`,
		`{"ratings": [{"bookTitle": "Dune", "value": "5"}]}`,
	}
	for _, input := range inputs {
		summary, err := svc.ImportFromJSON(context.Background(), user.ID, []byte(input))
		assert.Nil(t, summary)

		var malformed *importers.MalformedInputError
		assert.True(t, errors.As(err, &malformed), "input %q: %v", input, err)
	}

	assert.Zero(t, env.count(t, &entities.UserBook{}))
	assert.Zero(t, env.count(t, &entities.Rating{}))
	assert.Zero(t, env.count(t, &entities.ImportSession{}))

	require.Len(t, auditor.imports, len(inputs))
	assert.Error(t, auditor.imports[0].err)
}

func TestImportService_UnknownUserFailsBeforeParsing(t *testing.T) {
	env := setupTestEnv(t)
	svc := newTestImportService(env)
	ctx := context.Background()

	// Malformed payloads prove the user check runs first.
	_, err := svc.ImportFromJSON(ctx, 999, []byte("{broken"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.ImportFromCSV(ctx, 999, []byte("Ratings\nTitle,Rating\n\"Dune\",five\n"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	var malformed *importers.MalformedInputError
	assert.False(t, errors.As(err, &malformed))
}

func TestImportService_RatingsAreIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	dune := env.createBook(t, "Dune", "Frank Herbert")
	svc := newTestImportService(env)
	ctx := context.Background()

	_, err := svc.ImportFromJSON(ctx, user.ID, []byte(`{"ratings": [{"bookTitle": "Dune", "value": 3}]}`))
	require.NoError(t, err)
	summary, err := svc.ImportFromJSON(ctx, user.ID, []byte(`{"ratings": [{"bookTitle": "Dune", "value": 4}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Ratings.Applied)

	assert.Equal(t, int64(1), env.count(t, &entities.Rating{}))
	rating, err := env.ratings.GetRating(ctx, user.ID, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Value)
}

func TestImportService_MissingBookIsIsolated(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	titles := []string{"Dune", "Emma", "Hyperion"}
	for _, title := range titles {
		env.createBook(t, title, "Someone")
	}
	svc := newTestImportService(env)

	entries := make([]string, 0, len(titles)+1)
	for i, title := range titles {
		if i == 1 {
			entries = append(entries, `{"bookTitle": "Not In Catalog", "shelfName": "Read"}`)
		}
		entries = append(entries, fmt.Sprintf(`{"bookTitle": %q, "shelfName": "Read"}`, title))
	}
	payload := `{"books": [` + strings.Join(entries, ",") + `]}`

	summary, err := svc.ImportFromJSON(context.Background(), user.ID, []byte(payload))
	require.NoError(t, err)

	assert.Equal(t, CollectionSummary{Applied: 3, Skipped: 1}, summary.Shelves)
	assert.True(t, summary.Partial())
	assert.Equal(t, int64(3), env.count(t, &entities.UserBook{}))
}

func TestImportService_NonASCIITitleMatchesInAnyCase(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	book := env.createBook(t, "Édouard Louis", "Unknown")

	summary, err := newTestImportService(env).ImportFromJSON(context.Background(), user.ID, []byte(`{"books": [
		{"bookTitle": "édouard louis", "shelfName": "Read"},
		{"bookTitle": "ÉDOUARD LOUIS", "shelfName": "Read"}
	]}`))
	require.NoError(t, err)

	assert.Equal(t, CollectionSummary{Applied: 1, Conflicts: 1}, summary.Shelves)
	shelved, err := env.library.GetShelvedBooks(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, shelved, 1)
	assert.Equal(t, book.ID, shelved[0].BookID)
}

func TestImportService_DuplicateShelfEntryIsSwallowed(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	env.createBook(t, "Dune", "Frank Herbert")
	svc := newTestImportService(env)
	payload := []byte(`{"userBooks": [{"bookTitle": "Dune", "shelfName": "Read"}]}`)

	first, err := svc.ImportFromJSON(context.Background(), user.ID, payload)
	require.NoError(t, err)
	second, err := svc.ImportFromJSON(context.Background(), user.ID, payload)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Shelves.Applied)
	assert.Equal(t, 1, second.Shelves.Conflicts)
	assert.False(t, second.Partial())
	assert.Equal(t, int64(1), env.count(t, &entities.UserBook{}))
}

func TestImportService_CSVImport(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	dune := env.createBook(t, "Dune", "Frank Herbert")
	svc := newTestImportService(env)
	ctx := context.Background()

	payload := strings.Join([]string{
		"User Data Export",
		"Username,reader",
		"",
		"Books",
		"Title,Author,Genre,Shelf",
		`"Dune","Frank Herbert","x","Read"`,
		"",
		"Reviews",
		"Title,Content,Rating",
		`"Dune","Great book",5`,
		"",
		"Ratings",
		"Title,Rating",
		`"Dune",5`,
		"",
	}, "\n")

	summary, err := svc.ImportFromCSV(ctx, user.ID, []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Shelves.Applied)
	assert.Equal(t, 1, summary.Reviews.Applied)
	assert.Equal(t, 1, summary.Ratings.Applied)

	shelved, err := env.library.GetShelvedBooks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, shelved, 1)
	assert.Equal(t, "Read", shelved[0].ShelfName)
	assert.Equal(t, dune.ID, shelved[0].BookID)

	reviews, err := env.reviews.GetReviewsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great book", reviews[0].Content)
	assert.Equal(t, user.ID, reviews[0].UserID)

	ratings, err := env.ratings.GetRatingsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Value)
	assert.Equal(t, user.ID, ratings[0].UserID)
}

func TestImportService_RatingBounds(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	titles := []string{"Zero", "One", "Five", "Six"}
	for _, title := range titles {
		env.createBook(t, title, "Someone")
	}
	svc := newTestImportService(env)
	ctx := context.Background()

	payload := []byte(`{"ratings": [
		{"bookTitle": "Zero", "value": 0},
		{"bookTitle": "One", "value": 1},
		{"bookTitle": "Five", "value": 5},
		{"bookTitle": "Six", "value": 6}
	]}`)

	summary, err := svc.ImportFromJSON(ctx, user.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, CollectionSummary{Applied: 2, Skipped: 2}, summary.Ratings)

	ratings, err := env.ratings.GetRatingsForUser(ctx, user.ID)
	require.NoError(t, err)
	values := make(map[string]int)
	for _, r := range ratings {
		values[r.Book.Title] = r.Value
	}
	assert.Equal(t, map[string]int{"One": 1, "Five": 5}, values)
}

func TestImportService_RecordsSessionAuditAndArchive(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	env.createBook(t, "Dune", "Frank Herbert")
	auditor := &fakeAuditor{}
	archiver := &fakeArchiver{}
	svc := newTestImportService(env).WithAuditor(auditor).WithArchiver(archiver)
	ctx := context.Background()

	payload := []byte(`{
		"user": {"firstName": "Ada"},
		"books": [{"bookTitle": "Dune", "shelfName": "Read"}, {"bookTitle": "Dune", "shelfName": "Read"}],
		"ratings": [{"bookTitle": "Ghost", "value": 3}]
	}`)
	summary, err := svc.ImportFromJSON(ctx, user.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied.String(), summary.Profile)

	session, err := env.db.GetImportSession(ctx, summary.SessionID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, session.Status)
	assert.Equal(t, 1, session.ShelvesApplied)
	assert.Equal(t, 1, session.ConflictsIgnored)
	assert.Equal(t, 1, session.RatingsSkipped)
	assert.NotNil(t, session.CompletedAt)

	require.Len(t, auditor.imports, 1)
	assert.Equal(t, "json", auditor.imports[0].format)
	assert.True(t, auditor.imports[0].partial)
	assert.NoError(t, auditor.imports[0].err)
	assert.Contains(t, auditor.imports[0].metadata, "shelves")

	require.Len(t, archiver.payloads, 1)
	assert.True(t, strings.HasPrefix(archiver.payloads[0], "json:{"))

	t.Run("request id comes from the context when present", func(t *testing.T) {
		assert.NotEmpty(t, auditor.imports[0].requestID)

		_, err := svc.ImportFromJSON(WithRequestID(ctx, "req-42"), user.ID, []byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, "req-42", auditor.imports[len(auditor.imports)-1].requestID)

		_, err = svc.ImportFromJSON(WithRequestID(ctx, "req-43"), 999, []byte(`{}`))
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, "req-43", auditor.imports[len(auditor.imports)-1].requestID)
	})

	t.Run("archive failure does not fail the import", func(t *testing.T) {
		archiver.err = errors.New("read-only filesystem")
		_, err := svc.ImportFromJSON(ctx, user.ID, []byte(`{}`))
		assert.NoError(t, err)
	})
}

func TestImportService_EmptySnapshot(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "reader")
	svc := NewImportService(env.stores, "Want to Read", nil)

	summary, err := svc.Import(context.Background(), user.ID, importers.FormatCSV, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Applied())
	assert.False(t, summary.Partial())
	assert.Zero(t, summary.SessionID)
}
