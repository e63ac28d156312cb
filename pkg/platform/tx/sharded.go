package tx

import (
	"context"
	"sync"
	"time"

	dErrors "passport/pkg/domain-errors"
)

const numShards = 128

// ShardedRunner serialises in-memory work with one of 128 mutexes chosen by
// key, so operations on different passports rarely contend. When fn fails,
// every step registered through OnRollback is undone before the lock is
// released.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewShardedRunner returns a runner for the in-memory backend. A zero timeout
// uses DefaultTimeout.
func NewShardedRunner(timeout time.Duration) *ShardedRunner {
	return &ShardedRunner{timeout: timeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	shard := &r.shards[hashKey(key)%numShards]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, log, nested := withUndoLog(ctx)
	if err := fn(ctx); err != nil {
		// The outermost transaction owns the log.
		if !nested {
			log.rollback()
		}
		return err
	}
	return nil
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
