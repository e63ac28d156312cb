// Package cache fronts fact and private data reads with Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"passport/internal/facts/models"
	"passport/pkg/domain"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "passport_fact_cache_lookups_total",
	Help: "Fact cache lookups by record kind and result",
}, []string{"kind", "result"})

const (
	factPrefix        = "passport:fact:"
	privateDataPrefix = "passport:pdata:"
	generationPrefix  = "passport:gen:"

	DefaultTTL = 5 * time.Minute
)

// storeIfCurrent fills a record only while the triple's generation still
// matches the one the reader saw before loading from the store.
//
// KEYS[1] generation, KEYS[2] record. ARGV[1] expected generation, ARGV[2]
// payload, ARGV[3] ttl in milliseconds.
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache stores JSON copies of records keyed by (passport, attester, key).
//
// Every mutation bumps the triple's generation and drops its entries. Readers
// take the generation before reading the store and refill only if it has not
// moved, so a slow reader cannot put back a value older than the last write.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

type Option func(*RedisCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRedis(client redis.Cmdable, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// recordKey hash-tags the triple so its record and generation keys share a
// cluster slot.
func recordKey(prefix string, pid domain.PassportID, attester domain.Address, key domain.FactKey) string {
	return prefix + "{" + pid.String() + ":" + attester.String() + ":" + key.String() + "}"
}

// Generation returns the triple's current generation. Pass it to StoreFact or
// StorePrivateData after reading the store.
func (c *RedisCache) Generation(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (uint64, error) {
	gen, err := c.client.Get(ctx, recordKey(generationPrefix, pid, attester, key)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

// Fact returns the cached fact. ok is false on a miss.
func (c *RedisCache) Fact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, bool, error) {
	var f models.Fact
	ok, err := c.get(ctx, "fact", recordKey(factPrefix, pid, attester, key), &f)
	if !ok || err != nil {
		return nil, false, err
	}
	return &f, true, nil
}

// StoreFact caches f unless the triple changed since generation was read.
func (c *RedisCache) StoreFact(ctx context.Context, f *models.Fact, generation uint64) error {
	return c.set(ctx, f.PassportID, f.Attester, f.Key, factPrefix, f, generation)
}

func (c *RedisCache) PrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, bool, error) {
	var d models.PrivateData
	ok, err := c.get(ctx, "private_data", recordKey(privateDataPrefix, pid, attester, key), &d)
	if !ok || err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

func (c *RedisCache) StorePrivateData(ctx context.Context, d *models.PrivateData, generation uint64) error {
	return c.set(ctx, d.PassportID, d.Attester, d.Key, privateDataPrefix, d, generation)
}

// Invalidate bumps the triple's generation and drops both record kinds. The
// generation outlives any entry filled under it.
func (c *RedisCache) Invalidate(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) error {
	genKey := recordKey(generationPrefix, pid, attester, key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, 2*c.ttl)
		pipe.Del(ctx,
			recordKey(factPrefix, pid, attester, key),
			recordKey(privateDataPrefix, pid, attester, key),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (c *RedisCache) get(ctx context.Context, kind, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		lookups.WithLabelValues(kind, "miss").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", kind, err)
	}
	lookups.WithLabelValues(kind, "hit").Inc()
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey, prefix string, v any, generation uint64) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	keys := []string{recordKey(generationPrefix, pid, attester, key), recordKey(prefix, pid, attester, key)}
	if err := storeIfCurrent.Run(ctx, c.client, keys, generation, raw, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
