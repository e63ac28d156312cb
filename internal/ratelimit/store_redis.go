package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "passport:ratelimit:"

// RedisStore keeps each window as a sorted set scored by arrival time in
// microseconds. A request is recorded first and removed again when it
// overflows the limit, so concurrent callers never jointly exceed it.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.now()
	k := keyPrefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", cutoff)
		p.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		card = p.ZCard(ctx, k)
		oldest = p.ZRangeWithScores(ctx, k, 0, 0)
		p.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	reset := now.Add(window)
	if zs := oldest.Val(); len(zs) > 0 {
		reset = time.UnixMicro(int64(zs[0].Score)).Add(window)
	}

	count := int(card.Val())
	if count > limit {
		if err := s.client.ZRem(ctx, k, member).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
		}
		return Result{Allowed: false, Limit: limit, ResetAt: reset}, nil
	}
	return Result{Allowed: true, Limit: limit, Remaining: limit - count, ResetAt: reset}, nil
}
