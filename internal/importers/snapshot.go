package importers

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Snapshot is one user's exported data set: profile, shelf entries, reviews
// and ratings. It is built per import call and consumed entry by entry.
type Snapshot struct {
	User         UserInfo      `json:"user"`
	ShelvedBooks []ShelvedBook `json:"books"`
	Reviews      []ReviewEntry `json:"reviews"`
	Ratings      []RatingEntry `json:"ratings"`
	Shelves      []Shelf       `json:"shelves,omitempty"`
}

// UserInfo carries the exported profile. Username and Email identify the
// account the data came from; they are never written back on import.
type UserInfo struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// ShelvedBook places a book on a named shelf. BookID wins over BookTitle
// when both are present.
type ShelvedBook struct {
	BookID     *uint  `json:"bookId,omitempty"`
	BookTitle  string `json:"bookTitle"`
	BookAuthor string `json:"bookAuthor,omitempty"`
	ShelfName  string `json:"shelfName"`
}

type ReviewEntry struct {
	BookID      *uint  `json:"bookId,omitempty"`
	BookTitle   string `json:"bookTitle"`
	Content     string `json:"content"`
	RatingValue *int   `json:"ratingValue,omitempty"`
}

type RatingEntry struct {
	BookID    *uint  `json:"bookId,omitempty"`
	BookTitle string `json:"bookTitle"`
	Value     int    `json:"value"`
}

// Shelf describes a shelf declared by the export. Only informational on import.
type Shelf struct {
	Name      string `json:"name"`
	BookCount int    `json:"bookCount,omitempty"`
}

// UnmarshalJSON accepts "userBooks" as an alias of "books"; entries from both
// keys are kept, "books" first.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var wire struct {
		plain
		UserBooks []ShelvedBook `json:"userBooks"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Snapshot(wire.plain)
	s.ShelvedBooks = append(s.ShelvedBooks, wire.UserBooks...)
	return nil
}

// UnmarshalJSON accepts a shelf either as {"name": ...} or as a bare string.
func (s *Shelf) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Name)
	}
	type plain Shelf
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Shelf(p)
	return nil
}

// Entries returns the total number of shelf entries, reviews and ratings.
func (s *Snapshot) Entries() int {
	return len(s.ShelvedBooks) + len(s.Reviews) + len(s.Ratings)
}
