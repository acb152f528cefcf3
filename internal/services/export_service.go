package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/exporters"
	"github.com/mrlokans/bookshelf/internal/importers"
)

// ExportService produces snapshots that ImportService accepts unchanged.
type ExportService struct {
	users   UserStore
	shelves ShelfStore
	reviews ReviewStore
	ratings RatingStore
	auditor ExportAuditor
	logger  *zap.Logger
}

func NewExportService(stores Stores, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		users:   stores.Users,
		shelves: stores.Shelves,
		reviews: stores.Reviews,
		ratings: stores.Ratings,
		logger:  logger,
	}
}

func (s *ExportService) WithAuditor(auditor ExportAuditor) *ExportService {
	s.auditor = auditor
	return s
}

// BuildSnapshot collects everything the user holds into a Snapshot.
func (s *ExportService) BuildSnapshot(ctx context.Context, userID uint) (*importers.Snapshot, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}

	shelved, err := s.shelves.GetShelvedBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shelves: %w", err)
	}
	reviews, err := s.reviews.GetReviewsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	ratings, err := s.ratings.GetRatingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	return exporters.BuildSnapshot(user, shelved, reviews, ratings), nil
}

// Export writes the user's snapshot to w.
func (s *ExportService) Export(ctx context.Context, userID uint, format importers.Format, w io.Writer) error {
	snapshot, err := s.BuildSnapshot(ctx, userID)
	if err == nil {
		err = exporters.Write(w, snapshot, format)
	}

	if s.auditor != nil {
		description := fmt.Sprintf("Exported %s snapshot", format)
		if snapshot != nil {
			description = fmt.Sprintf("Exported %d shelf entries, %d reviews, %d ratings as %s",
				len(snapshot.ShelvedBooks), len(snapshot.Reviews), len(snapshot.Ratings), format)
		}
		s.auditor.LogExport(userID, string(format), description, err)
	}

	if err != nil {
		s.logger.Warn("export failed", zap.Uint("user_id", userID), zap.String("format", string(format)), zap.Error(err))
		return err
	}
	return nil
}
