// Package snapshot persists the last successful payload of each feed so a
// restarted process can serve data before its first fetch succeeds.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inpatient-room-catalog/internal/feed"
)

// Store saves and loads feed snapshots.
type Store interface {
	Save(ctx context.Context, name feed.Name, v any) error
	Load(ctx context.Context, name feed.Name, v any) (bool, error)
}

// NopStore keeps nothing. Used when no redis is configured.
type NopStore struct{}

func (NopStore) Save(context.Context, feed.Name, any) error { return nil }
func (NopStore) Load(context.Context, feed.Name, any) (bool, error) { return false, nil }

const keyPrefix = "rawat-inap:snapshot:"

// RedisStore keeps snapshots as JSON strings in redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(name feed.Name) string {
	return keyPrefix + string(name)
}

// Save stores v under the feed's key, replacing the previous snapshot.
func (s *RedisStore) Save(ctx context.Context, name feed.Name, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", name, err)
	}
	if err := s.client.Set(ctx, key(name), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", name, err)
	}
	return nil
}

// Load decodes the stored snapshot into v. It reports false when none exists.
func (s *RedisStore) Load(ctx context.Context, name feed.Name, v any) (bool, error) {
	payload, err := s.client.Get(ctx, key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s snapshot: %w", name, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("failed to decode %s snapshot: %w", name, err)
	}
	return true, nil
}
