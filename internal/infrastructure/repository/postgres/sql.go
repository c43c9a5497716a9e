package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation      = "23505"
	pqLockNotAvailable     = "55P03"
	pqDeadlockDetected     = "40P01"
	pqSerializationFailure = "40001"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func asPQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// isUniqueViolation matches a unique violation, optionally of one named constraint.
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := asPQError(err)
	if !ok || string(pqErr.Code) != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isLockContention covers lock_timeout expiry, deadlocks and serialization failures.
func isLockContention(err error) bool {
	pqErr, ok := asPQError(err)
	if !ok {
		return false
	}
	switch string(pqErr.Code) {
	case pqLockNotAvailable, pqDeadlockDetected, pqSerializationFailure:
		return true
	default:
		return false
	}
}

// withCause reports sentinel to callers while keeping the driver error for logs.
func withCause(sentinel, cause error, detail string) error {
	return crerr.WithSecondaryError(fmt.Errorf("%w: %s", sentinel, detail), cause)
}

// runInTx executes fn in one transaction. A positive lockTimeout bounds every lock wait.
func runInTx(ctx context.Context, db *sqlx.DB, name string, lockTimeout time.Duration, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", name, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout for %s: %w", name, err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", name, err)
	}
	return nil
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
