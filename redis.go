package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// newRedisClient connects to redisURL, which may be a bare host:port.
func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	raw := redisURL
	if !strings.Contains(raw, "://") {
		raw = fmt.Sprintf("redis://%s", raw)
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// bankListCache keeps each user's distinct bank names in Redis. A nil
// cache misses on every read and ignores writes.
type bankListCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func newBankListCache(client redis.UniversalClient, prefix string, ttl time.Duration) *bankListCache {
	if client == nil {
		return nil
	}
	return &bankListCache{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":") + ":banks:",
		ttl:    ttl,
	}
}

func (c *bankListCache) key(userID string) string {
	return c.prefix + userID
}

// Get returns the cached list, or false on a miss or any Redis failure.
func (c *bankListCache) Get(ctx context.Context, userID string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, false
	}
	var banks []string
	if err := json.Unmarshal([]byte(cached), &banks); err != nil {
		return nil, false
	}
	return banks, true
}

func (c *bankListCache) Set(ctx context.Context, userID string, banks []string) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(banks)
	if err != nil {
		return err
	}
	return c.client.SetEx(ctx, c.key(userID), data, c.ttl).Err()
}

// Invalidate drops the user's entry after an account write.
func (c *bankListCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	err := c.client.Del(ctx, c.key(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
