package services

// CollectionSummary counts the outcomes for one snapshot collection.
type CollectionSummary struct {
	Applied   int `json:"applied"`
	Conflicts int `json:"conflicts"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (c *CollectionSummary) Record(o Outcome) {
	switch o {
	case OutcomeApplied:
		c.Applied++
	case OutcomeConflict:
		c.Conflicts++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeFailed:
		c.Failed++
	}
}

func (c CollectionSummary) Total() int {
	return c.Applied + c.Conflicts + c.Skipped + c.Failed
}

// Summary describes what one import call did. Entries that were not applied
// never make the call fail; they are only counted here.
type Summary struct {
	SessionID uint              `json:"session_id,omitempty"`
	Format    string            `json:"format"`
	Profile   string            `json:"profile"`
	Shelves   CollectionSummary `json:"shelves"`
	Reviews   CollectionSummary `json:"reviews"`
	Ratings   CollectionSummary `json:"ratings"`
}

func (s *Summary) Applied() int {
	return s.Shelves.Applied + s.Reviews.Applied + s.Ratings.Applied
}

func (s *Summary) Conflicts() int {
	return s.Shelves.Conflicts + s.Reviews.Conflicts + s.Ratings.Conflicts
}

// Partial reports whether any entry was skipped or failed. Conflicts do not
// count: the data was already there.
func (s *Summary) Partial() bool {
	return s.Shelves.Skipped+s.Shelves.Failed+
		s.Reviews.Skipped+s.Reviews.Failed+
		s.Ratings.Skipped+s.Ratings.Failed > 0
}

func (s *Summary) metadata() map[string]any {
	return map[string]any{
		"shelves": s.Shelves,
		"reviews": s.Reviews,
		"ratings": s.Ratings,
		"profile": s.Profile,
	}
}
