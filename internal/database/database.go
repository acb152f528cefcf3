package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the sqlite database at dbPath and migrates
// every entity. gorm's own query logging stays at Warn.
func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithLogLevel(dbPath, logger.Warn)
}

func NewDatabaseWithLogLevel(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.UserBook{},
		&entities.Review{},
		&entities.Rating{},
		&entities.ImportSession{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := backfillTitleKeys(db); err != nil {
		return nil, fmt.Errorf("failed to backfill book title keys: %w", err)
	}

	zap.L().Debug("database initialized", zap.String("path", dbPath))

	return &Database{DB: db}, nil
}

// backfillTitleKeys fills title_key for catalog rows written without the
// Book save hook, such as rows seeded with raw SQL or created before the column
// existed.
func backfillTitleKeys(db *gorm.DB) error {
	var stale []entities.Book
	if err := db.Select("id", "title").Where("title_key IS NULL OR title_key = ''").Find(&stale).Error; err != nil {
		return err
	}
	for _, book := range stale {
		err := db.Model(&entities.Book{}).Where("id = ?", book.ID).
			UpdateColumn("title_key", entities.TitleKey(book.Title)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) CreateImportSession(ctx context.Context, userID uint, format string) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		UserID:    userID,
		Format:    format,
		Status:    entities.ImportStatusRunning,
		StartedAt: time.Now(),
	}
	if err := d.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *Database) UpdateImportSession(ctx context.Context, session *entities.ImportSession) error {
	return d.DB.WithContext(ctx).Save(session).Error
}

func (d *Database) GetImportSession(ctx context.Context, id uint) (*entities.ImportSession, error) {
	var session entities.ImportSession
	err := d.DB.WithContext(ctx).First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *Database) GetImportSessionsForUser(ctx context.Context, userID uint, limit int) ([]entities.ImportSession, error) {
	var sessions []entities.ImportSession
	query := d.DB.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}
