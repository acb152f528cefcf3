package http

import (
	"context"
	"io"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/services"
)

// Importer runs a synchronous import for one user.
type Importer interface {
	Import(ctx context.Context, userID uint, format importers.Format, data []byte) (*services.Summary, error)
}

// Exporter writes a user's snapshot in the requested format.
type Exporter interface {
	Export(ctx context.Context, userID uint, format importers.Format, w io.Writer) error
}

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// SessionLister lists recorded import sessions.
type SessionLister interface {
	GetImportSessionsForUser(ctx context.Context, userID uint, limit int) ([]entities.ImportSession, error)
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Importer Importer
	Exporter Exporter
	Database *database.Database
	Sessions SessionLister

	// Authentication; requests act as the default user when nil
	AuthMiddleware *auth.Middleware
	DefaultUserID  uint

	// Task queue (optional). Enables ?async=true imports and /api/tasks.
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Upper bound for import request bodies
	MaxImportBytes int64

	// Application info
	Version string

	Logger *zap.Logger
}
