package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/services"
)

type importCall struct {
	userID    uint
	format    importers.Format
	data      string
	requestID string
}

type fakeImporter struct {
	calls chan importCall
	err   error
}

func (f *fakeImporter) Import(ctx context.Context, userID uint, format importers.Format, data []byte) (*services.Summary, error) {
	f.calls <- importCall{userID: userID, format: format, data: string(data), requestID: services.RequestIDFromContext(ctx)}
	if f.err != nil {
		return nil, f.err
	}
	return &services.Summary{Format: string(format)}, nil
}

func TestImportSnapshotTaskConfig(t *testing.T) {
	cfg := ImportSnapshotTask{}.Config()

	assert.Equal(t, "import_snapshot", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestImportSnapshotProcessor(t *testing.T) {
	t.Run("passes the payload through", func(t *testing.T) {
		importer := &fakeImporter{calls: make(chan importCall, 1)}
		process := ImportSnapshotProcessor(importer, nil)

		err := process(context.Background(), ImportSnapshotTask{UserID: 3, Format: "CSV", Payload: []byte("Books\n"), RequestID: "req-7"})
		require.NoError(t, err)

		call := <-importer.calls
		assert.Equal(t, importCall{userID: 3, format: importers.FormatCSV, data: "Books\n", requestID: "req-7"}, call)
	})

	t.Run("import errors fail the task", func(t *testing.T) {
		importer := &fakeImporter{calls: make(chan importCall, 1), err: services.ErrUserNotFound}
		err := ImportSnapshotProcessor(importer, nil)(context.Background(), ImportSnapshotTask{UserID: 9, Format: "json"})
		assert.ErrorIs(t, err, services.ErrUserNotFound)
	})

	t.Run("unknown format fails before importing", func(t *testing.T) {
		importer := &fakeImporter{calls: make(chan importCall, 1)}
		err := ImportSnapshotProcessor(importer, nil)(context.Background(), ImportSnapshotTask{UserID: 1, Format: "xml"})
		assert.ErrorIs(t, err, importers.ErrUnsupportedFormat)
		assert.Empty(t, importer.calls)
	})

	t.Run("missing importer", func(t *testing.T) {
		err := ImportSnapshotProcessor(nil, nil)(context.Background(), ImportSnapshotTask{})
		assert.Error(t, err)
	})
}

func TestImportSnapshotQueue_RunsOnClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "app.db"), cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	importer := &fakeImporter{calls: make(chan importCall, 1)}
	client.Register(NewImportSnapshotQueue(importer, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	_, err = client.Enqueue(context.Background(), ImportSnapshotTask{UserID: 5, Format: "json", Payload: []byte(`{"ratings":[]}`)})
	require.NoError(t, err)

	select {
	case call := <-importer.calls:
		assert.Equal(t, uint(5), call.userID)
		assert.Equal(t, importers.FormatJSON, call.format)
		assert.Equal(t, `{"ratings":[]}`, call.data)
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}
}

type fakeCleaner struct {
	retention time.Duration
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, f.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
	})

	t.Run("falls back to default retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{})
		require.NoError(t, err)
		assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)
	})

	t.Run("propagates cleaner errors", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		err := CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{})
		assert.Error(t, err)
	})

	t.Run("missing cleaner", func(t *testing.T) {
		err := CleanupAuditEventsProcessor(nil, nil)(context.Background(), CleanupAuditEventsTask{})
		assert.Error(t, err)
	})
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Backoff)
}
