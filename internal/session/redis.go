package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "subtrack:session:"
	defaultRedisTTL = 24 * time.Hour
)

// redisStore keeps session snapshots in Redis so logins survive process
// restarts. Keys expire after the TTL; an expired session simply asks the
// user to log in again.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client as a session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(id string) string { return redisKeyPrefix + id }

func (s *redisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("session: decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *redisStore) Save(ctx context.Context, snap *Snapshot) error {
	now := time.Now()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now
	val, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("session: encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.ID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
