package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is an optional redis front for session lookups. A nil *Cache is
// valid and misses on every call, so callers never branch on whether the
// cache is configured.
type Cache struct {
	rdb *redis.Client
}

// NewCache connects to the redis instance at url. An empty url returns
// (nil, nil): caching disabled.
func NewCache(url string) (*Cache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Cache{rdb: redis.NewClient(opts)}, nil
}

func key(hash string) string {
	return "session:" + hash
}

// Has reports whether the token hash is known to be a live session. A miss
// means "unknown", not "revoked"; the caller falls back to the database.
func (c *Cache) Has(ctx context.Context, hash string) bool {
	if c == nil {
		return false
	}
	n, err := c.rdb.Exists(ctx, key(hash)).Result()
	return err == nil && n > 0
}

// Put marks the token hash as a live session for ttl.
func (c *Cache) Put(ctx context.Context, hash string, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	_ = c.rdb.Set(ctx, key(hash), 1, ttl).Err()
}

// Drop forgets the token hash. Must be called on revocation before the
// database row is removed.
func (c *Cache) Drop(ctx context.Context, hash string) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, key(hash)).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
