package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReplayStore is a Redis-backed ReplayStore for multi-instance
// deployments, where every instance must agree on which states were spent.
type RedisReplayStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisReplayStore creates a Redis-backed replay store. keyPrefix
// namespaces the keys and defaults to "slackauth:state:".
func NewRedisReplayStore(client redis.UniversalClient, keyPrefix string) *RedisReplayStore {
	if keyPrefix == "" {
		keyPrefix = "slackauth:state:"
	}
	return &RedisReplayStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkUsed records the id with SET NX so exactly one callback wins.
func (s *RedisReplayStore) MarkUsed(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+id, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to mark state used: %w", err)
	}
	if !ok {
		return ErrAlreadyUsed
	}
	return nil
}
