package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/services"
)

// SnapshotImporter runs one import call.
type SnapshotImporter interface {
	Import(ctx context.Context, userID uint, format importers.Format, data []byte) (*services.Summary, error)
}

// ImportSnapshotTask imports an uploaded export in the background.
type ImportSnapshotTask struct {
	UserID    uint   `json:"user_id"`
	Format    string `json:"format"`
	Payload   []byte `json:"payload"`
	RequestID string `json:"request_id,omitempty"`
}

// Config returns the queue configuration for import tasks. Imports run once.
func (t ImportSnapshotTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_snapshot",
		MaxAttempts: 1,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportSnapshotProcessor creates a processor function for ImportSnapshotTask.
func ImportSnapshotProcessor(importer SnapshotImporter, logger *zap.Logger) backlite.QueueProcessor[ImportSnapshotTask] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task ImportSnapshotTask) error {
		if importer == nil {
			return errors.New("snapshot importer not configured")
		}

		format, err := importers.ParseFormat(task.Format)
		if err != nil {
			return err
		}

		ctx = services.WithRequestID(ctx, task.RequestID)
		summary, err := importer.Import(ctx, task.UserID, format, task.Payload)
		if err != nil {
			return fmt.Errorf("import snapshot for user %d: %w", task.UserID, err)
		}

		logger.Info("background import finished",
			zap.Uint("user_id", task.UserID),
			zap.String("format", task.Format),
			zap.String("request_id", task.RequestID),
			zap.Uint("session_id", summary.SessionID),
			zap.Int("applied", summary.Applied()),
			zap.Bool("partial", summary.Partial()),
		)
		return nil
	}
}

// NewImportSnapshotQueue creates a backlite queue for background imports.
func NewImportSnapshotQueue(importer SnapshotImporter, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ImportSnapshotProcessor(importer, logger))
}
