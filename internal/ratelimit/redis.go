package ratelimit

import (
	"context"
	"errors"
	"fmt"
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
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter keeps counters in Redis so that every instance shares them.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLimiter creates a limiter storing keys under prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow atomically increments the window counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy) (Decision, error) {
	if l.client == nil {
		return Decision{}, errors.New("redis client is nil")
	}
	if policy.Limit <= 0 || policy.Window <= 0 {
		return Decision{}, errors.New("invalid rate limit policy")
	}

	windowMS := policy.Window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1
	}

	raw, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, windowMS).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit script response %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected counter type %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected ttl type %T", values[1])
	}

	return decide(int(count), policy, time.Duration(ttl)*time.Millisecond), nil
}
