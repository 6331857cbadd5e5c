// Package ratelimit caps analytics requests per user with a Redis fixed
// window shared by every service instance.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Decision is the outcome of consuming one request from a window.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter int // seconds
}

// Limiter counts requests per scope and subject.
type Limiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewLimiter allows limit requests per window. A nil client or a
// non-positive limit disables limiting.
func NewLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Limiter {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = "finhub"
	}
	return &Limiter{
		client: client,
		prefix: p + ":rate_limit",
		limit:  limit,
		window: window,
	}
}

// Enabled reports whether Consume does any work.
func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0 && l.window > 0
}

func (l *Limiter) Consume(ctx context.Context, scope, subject string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	scope, subject = strings.TrimSpace(scope), strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return Decision{Allowed: true}, nil
	}

	windowMs := l.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Decision{}, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected rate limit count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return Decision{
		Allowed:    int(count) <= l.limit,
		Count:      int(count),
		Limit:      l.limit,
		RetryAfter: retryAfter,
	}, nil
}
