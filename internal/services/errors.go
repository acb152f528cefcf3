package services

import "errors"

// ErrUserNotFound is returned when the import or export target does not exist.
var ErrUserNotFound = errors.New("user not found")
