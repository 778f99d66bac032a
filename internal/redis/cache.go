package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache holds JSON projections of one read model type under caller-chosen
// keys. The identity service keeps its per-user profile view here; the
// profile gate and GET /v1/profile read it before falling back to PostgreSQL.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewViewCache binds a cache for T to client. A ttl of 0 keeps keys forever.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl}
}

// Get reports a miss for absent keys, Redis failures and undecodable payloads
// alike, so callers always fall back to the store of record.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set writes value under key. A failed write leaves any previous value in
// place; callers that need the cache to stop serving it must Delete.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("view cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("view cache: write %s: %w", key, err)
	}
	return nil
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("view cache: delete %s: %w", key, err)
	}
	return nil
}
