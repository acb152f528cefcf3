package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// RetentionJob runs one audit retention pass.
type RetentionJob func(ctx context.Context, retentionDays int) error

// EnqueueCleanupJob hands the cleanup to the task queue so it gets retries.
func EnqueueCleanupJob(client *tasks.Client) RetentionJob {
	return func(ctx context.Context, retentionDays int) error {
		_, err := client.Enqueue(ctx, tasks.CleanupAuditEventsTask{RetentionDays: retentionDays})
		return err
	}
}

// DirectCleanupJob runs the cleanup inline, for when the task queue is disabled.
func DirectCleanupJob(cleaner tasks.AuditEventCleaner, logger *zap.Logger) RetentionJob {
	process := tasks.CleanupAuditEventsProcessor(cleaner, logger)
	return func(ctx context.Context, retentionDays int) error {
		return process(ctx, tasks.CleanupAuditEventsTask{RetentionDays: retentionDays})
	}
}

// AuditRetentionScheduler periodically removes old audit events.
type AuditRetentionScheduler struct {
	schedule      string
	retentionDays int
	job           RetentionJob
	logger        *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewAuditRetentionScheduler(schedule string, retentionDays int, job RetentionJob, logger *zap.Logger) *AuditRetentionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRetentionScheduler{
		schedule:      schedule,
		retentionDays: retentionDays,
		job:           job,
		logger:        logger.Named("audit_retention"),
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// ValidateSchedule checks a standard five field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Start schedules the job. An empty schedule disables the scheduler.
func (s *AuditRetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("audit retention disabled")
		return nil
	}
	if s.job == nil {
		return errors.New("audit retention job not configured")
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	entryID, err := s.cron.AddFunc(s.schedule, func() {
		_ = s.RunNow(jobCtx)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule audit retention job: %w", err)
	}
	s.entryID = entryID
	s.cancelFunc = cancel

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("audit retention scheduled",
		zap.String("schedule", s.schedule),
		zap.Int("retention_days", s.retentionDays),
		zap.Time("next_run", s.cron.Entry(entryID).Next))

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(jobCtx.Done())

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *AuditRetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.cancelFunc()
	s.isRunning = false
	s.logger.Info("audit retention stopped")
}

// RunNow runs one retention pass synchronously.
func (s *AuditRetentionScheduler) RunNow(ctx context.Context) error {
	if s.job == nil {
		return errors.New("audit retention job not configured")
	}

	start := time.Now()
	if err := s.job(ctx, s.retentionDays); err != nil {
		s.logger.Warn("audit retention run failed", zap.Error(err))
		return err
	}
	s.logger.Debug("audit retention run finished", zap.Duration("took", time.Since(start)))
	return nil
}

func (s *AuditRetentionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when stopped.
func (s *AuditRetentionScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
