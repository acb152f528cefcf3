package importers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Section headers and metadata keys of the CSV export dialect.
const (
	SectionUserData = "User Data Export"
	SectionBooks    = "Books"
	SectionReviews  = "Reviews"
	SectionRatings  = "Ratings"

	KeyUsername  = "Username"
	KeyEmail     = "Email"
	KeyFirstName = "First Name"
	KeyLastName  = "Last Name"
	KeyBio       = "Bio"

	// ColumnBookID is the header of the optional column carrying catalog ids.
	// Without it a Books line's third column is free text.
	ColumnBookID = "Book ID"
)

// Minimum columns a list line needs before it is considered at all.
const (
	minBookColumns   = 4
	minReviewColumns = 2
	minRatingColumns = 2
)

const maxCSVLineBytes = 1 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvSection int

const (
	sectionNone csvSection = iota
	sectionMetadata
	sectionBooks
	sectionReviews
	sectionRatings
)

// ParseCSV scans the section based CSV export in a single forward pass.
//
// Unknown section headers and lines outside a section are ignored, list lines
// with too few columns are skipped. A numeric column that does not parse is
// fatal for the whole call.
func ParseCSV(r io.Reader) (*Snapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCSVLineBytes)

	snapshot := &Snapshot{}
	section := sectionNone
	expectHeader := false
	bookIDColumn := -1
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if lineNo == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		line := strings.TrimRight(string(raw), "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			section = sectionNone
			expectHeader = false
			continue
		}

		// List section headers also close the metadata block when the blank
		// separator line is missing. Metadata lines always carry a comma.
		if section == sectionNone || section == sectionMetadata {
			if next, ok := listSectionHeader(trimmed); ok {
				section, expectHeader = next, true
				continue
			}
		}

		if section == sectionNone {
			if trimmed == SectionUserData {
				section = sectionMetadata
			}
			continue
		}

		if expectHeader {
			expectHeader = false
			bookIDColumn = columnIndex(line, ColumnBookID)
			continue
		}

		if section == sectionMetadata {
			applyMetadata(&snapshot.User, line)
			continue
		}

		fields, err := splitCSVLine(line)
		if err != nil {
			return nil, &MalformedInputError{Format: FormatCSV, Line: lineNo, Err: err}
		}

		switch section {
		case sectionBooks:
			if len(fields) < minBookColumns {
				continue
			}
			snapshot.ShelvedBooks = append(snapshot.ShelvedBooks, ShelvedBook{
				BookID:     bookIDAt(fields, bookIDColumn),
				BookTitle:  fields[0],
				BookAuthor: fields[1],
				ShelfName:  fields[3],
			})
		case sectionReviews:
			if len(fields) < minReviewColumns {
				continue
			}
			entry := ReviewEntry{BookTitle: fields[0], Content: fields[1], BookID: bookIDAt(fields, bookIDColumn)}
			if len(fields) > 2 && fields[2] != "" {
				value, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, &MalformedInputError{Format: FormatCSV, Line: lineNo, Err: fmt.Errorf("invalid review rating %q: %w", fields[2], err)}
				}
				entry.RatingValue = &value
			}
			snapshot.Reviews = append(snapshot.Reviews, entry)
		case sectionRatings:
			if len(fields) < minRatingColumns {
				continue
			}
			value, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &MalformedInputError{Format: FormatCSV, Line: lineNo, Err: fmt.Errorf("invalid rating value %q: %w", fields[1], err)}
			}
			snapshot.Ratings = append(snapshot.Ratings, RatingEntry{BookTitle: fields[0], Value: value, BookID: bookIDAt(fields, bookIDColumn)})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &MalformedInputError{Format: FormatCSV, Line: lineNo + 1, Err: err}
	}

	return snapshot, nil
}

func listSectionHeader(line string) (csvSection, bool) {
	switch line {
	case SectionBooks:
		return sectionBooks, true
	case SectionReviews:
		return sectionReviews, true
	case SectionRatings:
		return sectionRatings, true
	}
	return sectionNone, false
}

// columnIndex returns the position of name in a list header, or -1.
func columnIndex(header, name string) int {
	fields, err := splitCSVLine(header)
	if err != nil {
		return -1
	}
	for i, field := range fields {
		if strings.EqualFold(field, name) {
			return i
		}
	}
	return -1
}

// bookIDAt returns nil unless fields[index] is a positive integer.
func bookIDAt(fields []string, index int) *uint {
	if index < 0 || index >= len(fields) {
		return nil
	}
	id, err := strconv.ParseUint(fields[index], 10, 0)
	if err != nil || id == 0 {
		return nil
	}
	value := uint(id)
	return &value
}

func applyMetadata(user *UserInfo, line string) {
	key, value, ok := strings.Cut(line, ",")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)

	switch strings.TrimSpace(key) {
	case KeyUsername:
		user.Username = value
	case KeyEmail:
		user.Email = value
	case KeyFirstName:
		user.FirstName = value
	case KeyLastName:
		user.LastName = value
	case KeyBio:
		user.Bio = strings.ReplaceAll(value, ";", ",")
	}
}

// splitCSVLine splits one line on commas outside double quotes, with "" as an
// escaped quote. Quotes never span lines in this dialect.
func splitCSVLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	fields, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}
