package importers

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for an import format other than json or csv.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// MalformedInputError reports input that could not be turned into a Snapshot
// at all. Line is 1-based and zero when the position is unknown.
type MalformedInputError struct {
	Format Format
	Line   int
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed %s input at line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed %s input: %v", e.Format, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
