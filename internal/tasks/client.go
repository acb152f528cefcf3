package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// Client runs background imports and maintenance on a backlite queue kept in
// its own SQLite file next to the main database.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
}

func NewClient(mainDBPath string, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("tasks")

	path := queueDBPath(mainDBPath)
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          zapLogger{sugar: logger.Sugar()},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up task queue at %s: %w", path, err)
	}

	logger.Debug("task queue ready", zap.String("path", path))
	return &Client{
		backlite: bl,
		db:       db,
		workers:  cfg.Workers,
		logger:   logger,
	}, nil
}

// queueDBPath turns /data/bookshelf.db into /data/bookshelf-tasks.db.
func queueDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	if ext == "" {
		return mainDBPath + "-tasks.db"
	}
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// Register must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start launches the workers; calling it twice is a no-op.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.logger.Info("task queue started", zap.Int("workers", c.workers))
	c.backlite.Start(ctx)
}

// Stop waits for running tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return true
	}

	ok := c.backlite.Stop(ctx)
	if ok {
		c.logger.Info("task queue stopped")
	} else {
		c.logger.Warn("task queue stop timed out, some tasks may not have completed")
	}
	return ok
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue saves a single task and returns its ID.
func (c *Client) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s task: %w", task.Config().Name, err)
	}
	return ids[0], nil
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// zapLogger implements backlite.Logger; params are key/value pairs.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapLogger) Info(message string, params ...any) {
	l.sugar.Infow(message, params...)
}

func (l zapLogger) Error(message string, params ...any) {
	l.sugar.Errorw(message, params...)
}
