package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrLockTimeout is reported when the (tenant, match) lock could not be
// acquired within the configured wait. Callers may retry with backoff.
var ErrLockTimeout = errors.New("timed out waiting for the tenant-match lock")

// lockTimeoutCode is the postgres lock_not_available error class raised when
// lock_timeout expires while waiting on the advisory lock.
const lockTimeoutCode = "55P03"

// TenantLockManager serializes every multi-statement mutation on a
// (tenant, match) pair across all processes sharing the database. The lock
// is the two-key transaction-scoped advisory lock, so different tenants
// never contend, the same pair always serializes, and release happens with
// the transaction on every exit path including panics.
type TenantLockManager struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTenantLockManager(db *sql.DB, timeout time.Duration) *TenantLockManager {
	return &TenantLockManager{db: db, timeout: timeout}
}

// WithLock acquires the exclusive (tenantID, matchID) scope and runs fn
// inside the transaction that holds it. fn's writes commit atomically with
// the lock release; any error or panic rolls everything back, so a failure
// partway through a multi-statement operation leaves prior state untouched.
func (m *TenantLockManager) WithLock(ctx context.Context, tenantID, matchID int, fn func(tx *sql.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit locked operation: %w", cErr)
		}
	}()

	// Bound the advisory-lock wait. SET LOCAL scopes the timeout to this
	// transaction only.
	timeoutMS := int(m.timeout / time.Millisecond)
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeoutMS)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", tenantID, matchID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == lockTimeoutCode {
			err = fmt.Errorf("%w: tenant %d match %d", ErrLockTimeout, tenantID, matchID)
			return err
		}
		return fmt.Errorf("failed to acquire tenant-match lock: %w", err)
	}

	err = fn(tx)
	return err
}
