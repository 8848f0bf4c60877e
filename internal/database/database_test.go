package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) PingContext(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWaitForDatabase_RetriesUntilReady(t *testing.T) {
	p := &flakyPinger{failures: 2}

	err := waitForDatabase(context.Background(), p, Options{ConnectAttempts: 5, RetryBase: time.Millisecond}, quietLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestWaitForDatabase_GivesUp(t *testing.T) {
	p := &flakyPinger{failures: 10}

	err := waitForDatabase(context.Background(), p, Options{ConnectAttempts: 3, RetryBase: time.Millisecond}, quietLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
	assert.Equal(t, 3, p.calls)
}

func TestRunMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	original := gooseUp
	defer func() { gooseUp = original }()

	var gotDir string
	gooseUp = func(ctx context.Context, got *sql.DB, dir string) error {
		assert.Same(t, db, got)
		gotDir = dir
		return nil
	}

	require.NoError(t, RunMigrations(context.Background(), db, quietLogger()))
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	original := gooseUp
	defer func() { gooseUp = original }()

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("syntax error")
	}

	err = RunMigrations(context.Background(), db, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}
