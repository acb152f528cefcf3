package entities

import "errors"

// ErrNotFound is returned by repositories when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by repositories when a write would break a
// per-user uniqueness rule (book already on shelf, book already reviewed).
var ErrConflict = errors.New("record already exists")
