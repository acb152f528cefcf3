// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, import sessions
//	├── users/           # User lookup and profile updates
//	├── books/           # Catalog lookup by id and title search
//	├── library/         # Books placed on a user's shelves
//	├── reviews/         # One review per user and book
//	├── ratings/         # One rating per user and book (upsert)
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	libraryRepo := library.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookByID(ctx, 123)
//	entry, err := libraryRepo.AddBookToShelf(ctx, userID, book.ID, "Read")
//
// # Error Contract
//
// Repositories translate storage errors into the domain sentinels declared in
// internal/entities: entities.ErrNotFound for missing rows and
// entities.ErrConflict for writes that would break a per-user uniqueness rule.
// Every write runs in its own transaction, so a failed write never leaves
// partial rows behind.
package database
