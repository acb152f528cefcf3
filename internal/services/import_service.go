package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

// ImportService merges an exported snapshot into a user's live data.
//
// Only two things make a call fail: an unknown user (ErrUserNotFound) and input
// that cannot be parsed (*importers.MalformedInputError). Everything that goes
// wrong for a single entry is absorbed by the Reconciler and counted in the
// returned Summary.
type ImportService struct {
	users      UserStore
	reconciler *Reconciler
	sessions   SessionRecorder
	auditor    ImportAuditor
	archiver   PayloadArchiver
	logger     *zap.Logger
}

func NewImportService(stores Stores, defaultShelf string, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		users:      stores.Users,
		reconciler: NewReconciler(stores, defaultShelf, logger),
		logger:     logger,
	}
}

// WithSessions records an ImportSession row per successfully parsed import.
func (s *ImportService) WithSessions(recorder SessionRecorder) *ImportService {
	s.sessions = recorder
	return s
}

func (s *ImportService) WithAuditor(auditor ImportAuditor) *ImportService {
	s.auditor = auditor
	return s
}

// WithArchiver keeps a copy of every parsed payload.
func (s *ImportService) WithArchiver(archiver PayloadArchiver) *ImportService {
	s.archiver = archiver
	return s
}

func (s *ImportService) ImportFromJSON(ctx context.Context, userID uint, data []byte) (*Summary, error) {
	return s.Import(ctx, userID, importers.FormatJSON, data)
}

func (s *ImportService) ImportFromCSV(ctx context.Context, userID uint, data []byte) (*Summary, error) {
	return s.Import(ctx, userID, importers.FormatCSV, data)
}

// Import validates the user, parses data and applies shelves, reviews and
// ratings in that order, each in snapshot order.
func (s *ImportService) Import(ctx context.Context, userID uint, format importers.Format, data []byte) (*Summary, error) {
	requestID := requestIDOrNew(ctx)
	log := s.logger.With(zap.Uint("user_id", userID), zap.String("format", string(format)), zap.String("request_id", requestID))

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			err = fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		} else {
			err = fmt.Errorf("failed to look up user %d: %w", userID, err)
		}
		s.audit(userID, format, requestID, nil, err)
		return nil, err
	}

	snapshot, err := importers.Parse(data, format)
	if err != nil {
		log.Warn("rejecting import payload", zap.Error(err))
		s.audit(userID, format, requestID, nil, err)
		return nil, err
	}

	if s.archiver != nil {
		if name, err := s.archiver.Archive(string(format), data); err != nil {
			log.Warn("failed to archive import payload", zap.Error(err))
		} else {
			log.Debug("archived import payload", zap.String("file", name))
		}
	}

	summary := &Summary{Format: string(format)}
	session := s.startSession(ctx, log, userID, format)
	if session != nil {
		summary.SessionID = session.ID
	}

	s.apply(ctx, user, snapshot, summary)

	s.finishSession(ctx, log, session, summary)
	s.audit(userID, format, requestID, summary, nil)

	log.Info("import finished",
		zap.Int("applied", summary.Applied()),
		zap.Int("conflicts", summary.Conflicts()),
		zap.Bool("partial", summary.Partial()),
	)
	return summary, nil
}

func (s *ImportService) apply(ctx context.Context, user *entities.User, snapshot *importers.Snapshot, summary *Summary) {
	summary.Profile = s.reconciler.ApplyProfile(ctx, user, snapshot.User).String()

	for i, entry := range snapshot.ShelvedBooks {
		summary.Shelves.Record(s.reconciler.withFields(zap.Int("entry", i)).ApplyShelvedBook(ctx, user.ID, entry))
	}
	for i, entry := range snapshot.Reviews {
		summary.Reviews.Record(s.reconciler.withFields(zap.Int("entry", i)).ApplyReview(ctx, user.ID, entry))
	}
	for i, entry := range snapshot.Ratings {
		summary.Ratings.Record(s.reconciler.withFields(zap.Int("entry", i)).ApplyRating(ctx, user.ID, entry))
	}
}

func (s *ImportService) startSession(ctx context.Context, log *zap.Logger, userID uint, format importers.Format) *entities.ImportSession {
	if s.sessions == nil {
		return nil
	}
	session, err := s.sessions.CreateImportSession(ctx, userID, string(format))
	if err != nil {
		log.Warn("failed to record import session", zap.Error(err))
		return nil
	}
	return session
}

func (s *ImportService) finishSession(ctx context.Context, log *zap.Logger, session *entities.ImportSession, summary *Summary) {
	if session == nil {
		return
	}

	now := time.Now()
	session.Status = entities.ImportStatusCompleted
	session.CompletedAt = &now
	session.ShelvesApplied = summary.Shelves.Applied
	session.ShelvesSkipped = summary.Shelves.Skipped + summary.Shelves.Failed
	session.ReviewsApplied = summary.Reviews.Applied
	session.ReviewsSkipped = summary.Reviews.Skipped + summary.Reviews.Failed
	session.RatingsApplied = summary.Ratings.Applied
	session.RatingsSkipped = summary.Ratings.Skipped + summary.Ratings.Failed
	session.ConflictsIgnored = summary.Conflicts()
	if failed := summary.Shelves.Failed + summary.Reviews.Failed + summary.Ratings.Failed; failed > 0 {
		session.Errors = fmt.Sprintf("%d entries failed with unexpected store errors", failed)
	}

	if err := s.sessions.UpdateImportSession(ctx, session); err != nil {
		log.Warn("failed to update import session", zap.Uint("session_id", session.ID), zap.Error(err))
	}
}

func (s *ImportService) audit(userID uint, format importers.Format, requestID string, summary *Summary, err error) {
	if s.auditor == nil {
		return
	}
	if summary == nil {
		s.auditor.LogImport(userID, string(format), requestID, "Import rejected", nil, false, err)
		return
	}
	description := fmt.Sprintf("Imported %d entries (%d already present)", summary.Applied(), summary.Conflicts())
	s.auditor.LogImport(userID, string(format), requestID, description, summary.metadata(), summary.Partial(), nil)
}
