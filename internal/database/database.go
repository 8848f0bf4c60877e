package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"taskboard-be/migrations"
)

// Options tunes the connection pool and the startup ping loop.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts uint64
	RetryBase       time.Duration
}

// NewConnection opens the pool and waits until the database answers a ping.
// Only the initial connect is retried; request-time failures surface immediately.
func NewConnection(ctx context.Context, databaseURL string, opts Options, logger logrus.FieldLogger) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := waitForDatabase(ctx, db, opts, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Successfully connected to database")
	return db, nil
}

// pinger is the part of *sql.DB the startup loop needs.
type pinger interface {
	PingContext(ctx context.Context) error
}

func waitForDatabase(ctx context.Context, db pinger, opts Options, logger logrus.FieldLogger) error {
	base := opts.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	attempts := opts.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(base))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.WithError(err).WithField("attempt", attempt).Warn("Database not ready")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded migrations with goose
func RunMigrations(ctx context.Context, db *sql.DB, logger logrus.FieldLogger) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed")
	return nil
}
