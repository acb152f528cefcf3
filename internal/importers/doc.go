// Package importers turns exported user data back into a Snapshot.
//
// Two input formats are understood:
//
//   - JSON: a single object with "user", "books" (or "userBooks"), "reviews",
//     "ratings" and "shelves" keys.
//   - CSV: a line oriented dialect made of sections. A "User Data Export" block
//     holds key,value pairs; "Books", "Reviews" and "Ratings" sections each have
//     a header line followed by data lines. A blank line ends a section.
//
// Parsing is tolerant at the line level (unknown sections and short lines are
// ignored) but strict about values it must convert: a non-numeric rating makes
// the whole input malformed. Whether an entry can actually be applied is decided
// later by the reconciler, not here.
//
// # Example Usage
//
//	snapshot, err := importers.Parse(data, importers.FormatCSV)
//	var malformed *importers.MalformedInputError
//	if errors.As(err, &malformed) {
//		// reject the whole payload
//	}
package importers
