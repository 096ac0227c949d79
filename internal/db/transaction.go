package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tOgg1/trainwatch/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 25 * time.Millisecond
)

// TransactionWithRetry runs fn in a transaction, retrying the whole
// transaction while SQLite reports the database as busy. Zero values select
// the defaults.
func (db *DB) TransactionWithRetry(ctx context.Context, maxAttempts int, baseBackoff time.Duration, fn func(*sql.Tx) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if baseBackoff <= 0 {
		baseBackoff = defaultRetryBackoff
	}
	return withRetry(ctx, maxAttempts, baseBackoff, func() error {
		return db.Transaction(ctx, fn)
	})
}

func withRetry(ctx context.Context, maxAttempts int, backoff time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !isBusyError(err) || attempt >= maxAttempts {
			return err
		}

		logging.Component("db").Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("database busy, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func isBusyError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}
