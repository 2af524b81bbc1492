package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares cache entries between processes. Staleness is evaluated at
// read time from the stored write timestamp, same rule as Memory.
type Redis[V any] struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type redisEntry[V any] struct {
	Value V     `json:"value"`
	Ts    int64 `json:"ts"` // unix nano write time
}

func NewRedis[V any](rdb *redis.Client, prefix string, ttl time.Duration, opts ...Option) *Redis[V] {
	o := buildOptions(opts)
	return &Redis[V]{rdb: rdb, prefix: prefix, ttl: ttl, now: o.now}
}

func (r *Redis[V]) key(k string) string { return fmt.Sprintf("%s:%s", r.prefix, k) }

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var e redisEntry[V]
	if err := json.Unmarshal(b, &e); err != nil {
		return zero, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	if !fresh(r.now(), time.Unix(0, e.Ts), r.ttl) {
		return zero, false, nil
	}
	return e.Value, true, nil
}

func (r *Redis[V]) Set(ctx context.Context, key string, v V) error {
	b, err := json.Marshal(redisEntry[V]{Value: v, Ts: r.now().UnixNano()})
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Health pings the Redis server.
func (r *Redis[V]) Health(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
