package audit

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const maxErrorLength = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	logger  *zap.Logger
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.logger.Warn("failed to log audit event",
				zap.String("action", event.Action), zap.Uint("user_id", event.UserID), zap.Error(err))
		}
	}()
}

// Wait blocks until every LogAsync call has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records an import event. partial marks imports that finished but
// skipped some entries.
func (s *Service) LogImport(userID uint, format, requestID, description string, metadata map[string]any, partial bool, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      format + "_import",
		Description: truncate(description, maxErrorLength),
		RequestID:   requestID,
		Status:      entities.AuditStatusSuccess,
	}

	if len(metadata) > 0 {
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	}

	switch {
	case err != nil:
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLength)
	case partial:
		event.Status = entities.AuditStatusPartial
	}

	s.LogAsync(event)
}

// LogExport records an export event.
func (s *Service) LogExport(userID uint, format, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventExport,
		Action:      format + "_export",
		Description: truncate(description, maxErrorLength),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLength)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events. eventType may be empty.
func (s *Service) GetEvents(userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, eventType, limit, offset)
}

// DeleteOldEvents removes events older than retention and records the cleanup
// itself as a system event.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.repo.DeleteOldEvents(cutoff)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCleanup,
		Action:      "audit_cleanup",
		Description: fmt.Sprintf("Deleted %d audit events older than %s", deleted, cutoff.Format(time.RFC3339)),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLength)
	}
	s.LogAsync(event)

	return deleted, err
}

// truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
