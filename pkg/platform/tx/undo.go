package tx

import "context"

type undoKey struct{}

// undoLog collects compensating steps for one in-memory transaction.
type undoLog struct {
	steps []func()
}

func (l *undoLog) rollback() {
	for i := len(l.steps) - 1; i >= 0; i-- {
		l.steps[i]()
	}
	l.steps = nil
}

// OnRollback registers undo to run if the enclosing ShardedRunner transaction
// fails. Steps run in reverse registration order. Outside such a transaction
// it does nothing: database stores rely on the SQL rollback instead.
//
// In-memory stores call it after every write so a failed operation leaves no
// partial state behind.
func OnRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		log.steps = append(log.steps, undo)
	}
}

// withUndoLog returns ctx carrying a fresh log, or the log already present
// when the call is nested inside another transaction.
func withUndoLog(ctx context.Context) (context.Context, *undoLog, bool) {
	if log, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		return ctx, log, true
	}
	log := &undoLog{}
	return context.WithValue(ctx, undoKey{}, log), log, false
}
