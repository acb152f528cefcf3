package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultShelfName is applied to imported shelf entries that name no shelf
	DefaultShelfName = "Want to Read"
)
