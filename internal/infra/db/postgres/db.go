// Package postgres stores rooms, calendar entries and reservations in
// PostgreSQL through gorm. Writers lock the room row with SELECT ... FOR
// UPDATE; readers run in read-only repeatable-read transactions.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects and migrates the schema.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         newLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := Migrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables used by the engine.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&roomModel{},
		&entryModel{},
		&reservationModel{},
		&outboxModel{},
		&idempotencyModel{},
	); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func newLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}
