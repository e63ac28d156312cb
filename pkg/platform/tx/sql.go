package tx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dErrors "passport/pkg/domain-errors"
)

// SQLRunner wraps fn in a READ COMMITTED transaction holding a
// transaction-scoped advisory lock on key. Writers for the same passport queue
// on the lock; rows shared across passports (identity balances) are guarded by
// conditional updates, so no serialisation retries are needed.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Nested calls join the outer transaction.
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
