package entities

import "time"

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportSession records the outcome of one user data import call.
type ImportSession struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	UserID           uint         `gorm:"index" json:"user_id"`
	Format           string       `gorm:"size:10" json:"format"`
	Status           ImportStatus `gorm:"size:20;default:'pending'" json:"status"`
	ShelvesApplied   int          `json:"shelves_applied"`
	ShelvesSkipped   int          `json:"shelves_skipped"`
	ReviewsApplied   int          `json:"reviews_applied"`
	ReviewsSkipped   int          `json:"reviews_skipped"`
	RatingsApplied   int          `json:"ratings_applied"`
	RatingsSkipped   int          `json:"ratings_skipped"`
	ConflictsIgnored int          `json:"conflicts_ignored"`
	Errors           string       `gorm:"type:text" json:"errors,omitempty"`
	StartedAt        time.Time    `json:"started_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	User             User         `gorm:"foreignKey:UserID" json:"-"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}
