// Package exporters renders a user's library as a Snapshot in the formats the
// importers package reads back.
package exporters

import (
	"sort"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

// BuildSnapshot assembles a Snapshot from store rows. Shelf entries, reviews
// and ratings keep the order they are given in. Reviews carry the user's
// rating of the same book when one exists.
func BuildSnapshot(user *entities.User, shelved []entities.UserBook, reviews []entities.Review, ratings []entities.Rating) *importers.Snapshot {
	snapshot := &importers.Snapshot{
		User: importers.UserInfo{
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Bio:       user.Bio,
		},
		ShelvedBooks: make([]importers.ShelvedBook, 0, len(shelved)),
		Reviews:      make([]importers.ReviewEntry, 0, len(reviews)),
		Ratings:      make([]importers.RatingEntry, 0, len(ratings)),
	}

	shelfCounts := make(map[string]int)
	for _, ub := range shelved {
		snapshot.ShelvedBooks = append(snapshot.ShelvedBooks, importers.ShelvedBook{
			BookID:     bookID(ub.BookID),
			BookTitle:  ub.Book.Title,
			BookAuthor: ub.Book.Author,
			ShelfName:  ub.ShelfName,
		})
		shelfCounts[ub.ShelfName]++
	}

	ratingByBook := make(map[uint]int, len(ratings))
	for _, r := range ratings {
		ratingByBook[r.BookID] = r.Value
		snapshot.Ratings = append(snapshot.Ratings, importers.RatingEntry{
			BookID:    bookID(r.BookID),
			BookTitle: r.Book.Title,
			Value:     r.Value,
		})
	}

	for _, r := range reviews {
		entry := importers.ReviewEntry{
			BookID:    bookID(r.BookID),
			BookTitle: r.Book.Title,
			Content:   r.Content,
		}
		if value, ok := ratingByBook[r.BookID]; ok {
			entry.RatingValue = &value
		}
		snapshot.Reviews = append(snapshot.Reviews, entry)
	}

	names := make([]string, 0, len(shelfCounts))
	for name := range shelfCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		snapshot.Shelves = append(snapshot.Shelves, importers.Shelf{Name: name, BookCount: shelfCounts[name]})
	}

	return snapshot
}

func bookID(id uint) *uint {
	return &id
}
