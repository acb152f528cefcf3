package exporters

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

func sampleLibrary() (*entities.User, []entities.UserBook, []entities.Review, []entities.Rating) {
	dune := entities.Book{ID: 1, Title: "Dune", Author: "Frank Herbert"}
	emma := entities.Book{ID: 2, Title: "Emma", Author: "Jane Austen"}

	user := &entities.User{
		ID:        7,
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Bio:       "Reads sci-fi, classics, and\nmanuals",
	}
	shelved := []entities.UserBook{
		{UserID: 7, BookID: 1, Book: dune, ShelfName: "Read"},
		{UserID: 7, BookID: 2, Book: emma, ShelfName: "Want to Read"},
		{UserID: 7, BookID: 1, Book: dune, ShelfName: "Favourites"},
	}
	reviews := []entities.Review{
		{UserID: 7, BookID: 1, Book: dune, Content: `He said "hi", then left, and smiled`},
		{UserID: 7, BookID: 2, Book: emma, Content: "Witty"},
	}
	ratings := []entities.Rating{
		{UserID: 7, BookID: 1, Book: dune, Value: 5},
	}
	return user, shelved, reviews, ratings
}

func TestBuildSnapshot(t *testing.T) {
	snapshot := BuildSnapshot(sampleLibrary())

	assert.Equal(t, "jdoe", snapshot.User.Username)
	require.Len(t, snapshot.ShelvedBooks, 3)
	require.NotNil(t, snapshot.ShelvedBooks[1].BookID)
	assert.Equal(t, uint(2), *snapshot.ShelvedBooks[1].BookID)

	t.Run("reviews carry the rating of the same book", func(t *testing.T) {
		require.Len(t, snapshot.Reviews, 2)
		require.NotNil(t, snapshot.Reviews[0].RatingValue)
		assert.Equal(t, 5, *snapshot.Reviews[0].RatingValue)
		assert.Nil(t, snapshot.Reviews[1].RatingValue)
	})

	t.Run("shelves are counted and sorted by name", func(t *testing.T) {
		assert.Equal(t, []importers.Shelf{
			{Name: "Favourites", BookCount: 1},
			{Name: "Read", BookCount: 1},
			{Name: "Want to Read", BookCount: 1},
		}, snapshot.Shelves)
	})
}

func TestGenerateCSV(t *testing.T) {
	out := GenerateCSV(BuildSnapshot(sampleLibrary()))

	assert.True(t, strings.HasPrefix(out, "User Data Export\nUsername,jdoe\n"))
	assert.Contains(t, out, "Bio,Reads sci-fi; classics; and manuals\n")
	assert.Contains(t, out, "\nBooks\nTitle,Author,Book ID,Shelf\n\"Dune\",\"Frank Herbert\",\"1\",\"Read\"\n")
	assert.Contains(t, out, "\nReviews\nTitle,Content,Rating,Book ID\n")
	assert.Contains(t, out, `"Dune","He said ""hi"", then left, and smiled",5,"1"`+"\n")
	assert.Contains(t, out, "\"Emma\",\"Witty\",,\"2\"\n")
	assert.Contains(t, out, "\nRatings\nTitle,Rating,Book ID\n\"Dune\",5,\"1\"\n")
}

func TestCSVRoundTrip(t *testing.T) {
	original := BuildSnapshot(sampleLibrary())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original, importers.FormatCSV))

	parsed, err := importers.ParseCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.User.Username, parsed.User.Username)
	assert.Equal(t, "Reads sci-fi, classics, and manuals", parsed.User.Bio)

	require.Len(t, parsed.ShelvedBooks, len(original.ShelvedBooks))
	for i := range original.ShelvedBooks {
		assert.Equal(t, original.ShelvedBooks[i].BookTitle, parsed.ShelvedBooks[i].BookTitle)
		assert.Equal(t, original.ShelvedBooks[i].ShelfName, parsed.ShelvedBooks[i].ShelfName)
		assert.Equal(t, original.ShelvedBooks[i].BookID, parsed.ShelvedBooks[i].BookID)
	}

	require.Len(t, parsed.Reviews, 2)
	assert.Equal(t, `He said "hi", then left, and smiled`, parsed.Reviews[0].Content)
	require.NotNil(t, parsed.Reviews[0].RatingValue)
	assert.Equal(t, 5, *parsed.Reviews[0].RatingValue)

	assert.Equal(t, original.Reviews[1].BookID, parsed.Reviews[1].BookID)

	require.Len(t, parsed.Ratings, 1)
	assert.Equal(t, 5, parsed.Ratings[0].Value)
	assert.Equal(t, original.Ratings[0].BookID, parsed.Ratings[0].BookID)
}

func TestJSONRoundTrip(t *testing.T) {
	original := BuildSnapshot(sampleLibrary())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original, importers.FormatJSON))
	assert.Contains(t, buf.String(), `"books"`)

	parsed, err := importers.ParseJSON(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, &importers.Snapshot{}, importers.Format("xml"))
	assert.ErrorIs(t, err, importers.ErrUnsupportedFormat)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(importers.FormatCSV))
	assert.Equal(t, "application/json; charset=utf-8", ContentType(importers.FormatJSON))
}
