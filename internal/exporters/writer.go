package exporters

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mrlokans/bookshelf/internal/importers"
)

// ContentType returns the MIME type of an export format.
func ContentType(format importers.Format) string {
	if format == importers.FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Write renders snapshot to w in the given format.
func Write(w io.Writer, snapshot *importers.Snapshot, format importers.Format) error {
	switch format {
	case importers.FormatJSON:
		return WriteJSON(w, snapshot)
	case importers.FormatCSV:
		_, err := io.WriteString(w, GenerateCSV(snapshot))
		return err
	default:
		return fmt.Errorf("%w: %q", importers.ErrUnsupportedFormat, format)
	}
}

func WriteJSON(w io.Writer, snapshot *importers.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// GenerateCSV renders the sectioned CSV dialect. List fields are always quoted.
// The dialect is line based, so line breaks inside values become spaces.
func GenerateCSV(snapshot *importers.Snapshot) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s\n", importers.SectionUserData)
	fmt.Fprintf(&builder, "%s,%s\n", importers.KeyUsername, metadataValue(snapshot.User.Username))
	fmt.Fprintf(&builder, "%s,%s\n", importers.KeyEmail, metadataValue(snapshot.User.Email))
	fmt.Fprintf(&builder, "%s,%s\n", importers.KeyFirstName, metadataValue(snapshot.User.FirstName))
	fmt.Fprintf(&builder, "%s,%s\n", importers.KeyLastName, metadataValue(snapshot.User.LastName))
	fmt.Fprintf(&builder, "%s,%s\n", importers.KeyBio, strings.ReplaceAll(metadataValue(snapshot.User.Bio), ",", ";"))
	builder.WriteString("\n")

	fmt.Fprintf(&builder, "%s\n", importers.SectionBooks)
	fmt.Fprintf(&builder, "Title,Author,%s,Shelf\n", importers.ColumnBookID)
	for _, b := range snapshot.ShelvedBooks {
		fmt.Fprintf(&builder, "%s,%s,%s,%s\n", quote(b.BookTitle), quote(b.BookAuthor), quote(formatBookID(b.BookID)), quote(b.ShelfName))
	}
	builder.WriteString("\n")

	fmt.Fprintf(&builder, "%s\n", importers.SectionReviews)
	fmt.Fprintf(&builder, "Title,Content,Rating,%s\n", importers.ColumnBookID)
	for _, r := range snapshot.Reviews {
		rating := ""
		if r.RatingValue != nil {
			rating = fmt.Sprint(*r.RatingValue)
		}
		fmt.Fprintf(&builder, "%s,%s,%s,%s\n", quote(r.BookTitle), quote(r.Content), rating, quote(formatBookID(r.BookID)))
	}
	builder.WriteString("\n")

	fmt.Fprintf(&builder, "%s\n", importers.SectionRatings)
	fmt.Fprintf(&builder, "Title,Rating,%s\n", importers.ColumnBookID)
	for _, r := range snapshot.Ratings {
		fmt.Fprintf(&builder, "%s,%d,%s\n", quote(r.BookTitle), r.Value, quote(formatBookID(r.BookID)))
	}
	builder.WriteString("\n")

	return builder.String()
}

func formatBookID(id *uint) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(singleLine(s), `"`, `""`) + `"`
}

func metadataValue(s string) string {
	return strings.TrimSpace(singleLine(s))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
