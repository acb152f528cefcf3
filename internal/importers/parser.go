package importers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a user supplied format name ("json", "CSV", ...) to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Parse turns raw export data into a Snapshot. Any failure is reported as a
// *MalformedInputError and no partial snapshot is returned.
func Parse(raw []byte, format Format) (*Snapshot, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(raw)
	case FormatCSV:
		return ParseCSV(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ParseJSON decodes a single snapshot object.
func ParseJSON(raw []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedInputError{Format: FormatJSON, Err: errors.New("expected a JSON object")}
	}

	var snapshot Snapshot
	if err := json.Unmarshal(trimmed, &snapshot); err != nil {
		return nil, &MalformedInputError{Format: FormatJSON, Err: err}
	}
	return &snapshot, nil
}
