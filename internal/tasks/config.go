package tasks

import (
	"time"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Config sizes the worker pool and sets queue housekeeping intervals.
// MaxRetries, RetryDelay and TaskTimeout are defaults for queues whose task
// config leaves them unset.
type Config struct {
	Workers           int
	MaxRetries        int
	RetryDelay        time.Duration
	TaskTimeout       time.Duration
	ReleaseAfter      time.Duration // stuck tasks go back to the queue after this
	CleanupInterval   time.Duration // how often finished tasks are purged
	RetentionDuration time.Duration // how long finished tasks are kept
}

func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// FromAppConfig takes the queue settings from the environment, keeping the
// defaults for anything left at zero.
func FromAppConfig(c config.Tasks) Config {
	cfg := DefaultConfig()
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.MaxRetries > 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	cfg.RetryDelay = orDefault(c.RetryDelay, cfg.RetryDelay)
	cfg.TaskTimeout = orDefault(c.TaskTimeout, cfg.TaskTimeout)
	cfg.ReleaseAfter = orDefault(c.ReleaseAfter, cfg.ReleaseAfter)
	cfg.CleanupInterval = orDefault(c.CleanupInterval, cfg.CleanupInterval)
	cfg.RetentionDuration = orDefault(c.RetentionDuration, cfg.RetentionDuration)
	return cfg
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
