// Package tx carries the transactional boundary used by every mutating
// passport operation.
//
// A Runner serialises all work for one key (a passport ID). The SQL runner
// also opens a database transaction and stores it in the context so stores
// join it through From.
package tx

import (
	"context"
	"database/sql"
	"time"
)

// DefaultTimeout bounds a transaction when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

// Runner runs fn as one atomic unit serialised on key.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
