package redisstore

import (
	"context"
	"fmt"
	"time"

	"marketdata-service/internal/application"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "marketdata:idem:"

var _ application.IdempotencyStore = (*Store)(nil)

// Store reserves idempotency keys with SET NX and a TTL.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), s.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
