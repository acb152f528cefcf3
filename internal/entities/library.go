package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName string         `gorm:"size:100" json:"first_name,omitempty"`
	LastName  string         `gorm:"size:100" json:"last_name,omitempty"`
	Bio       string         `gorm:"type:text" json:"bio,omitempty"`
	Token     string         `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Book is a catalog entry shared by all users.
type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"index;size:512" json:"title"`
	TitleKey  string         `gorm:"index;size:512" json:"-"` // lower-cased trimmed title for lookups
	Author    string         `gorm:"index;size:256" json:"author"`
	ISBN      string         `gorm:"index;size:20" json:"isbn,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TitleKey normalizes a title for case-insensitive lookups. sqlite's LOWER
// only folds ASCII, so the key is computed here.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (b *Book) BeforeSave(*gorm.DB) error {
	b.TitleKey = TitleKey(b.Title)
	return nil
}

// UserBook places a catalog book on one of the user's named shelves.
// A book may sit on several shelves, but only once per shelf.
type UserBook struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_book_shelf;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_user_book_shelf;not null" json:"book_id"`
	ShelfName string    `gorm:"uniqueIndex:idx_user_book_shelf;size:100;not null" json:"shelf_name"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_review_user_book;not null" json:"book_id"`
	Content   string    `gorm:"type:text" json:"content"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_rating_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_rating_user_book;not null" json:"book_id"`
	Value     int       `gorm:"not null" json:"value"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRating reports whether v is an acceptable rating value.
func ValidRating(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

func (User) TableName() string {
	return "users"
}

func (UserBook) TableName() string {
	return "user_books"
}
