package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter, starts the expiry on the first
// hit and returns {count, pttl}.
const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`

const redisTimeout = 500 * time.Millisecond

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLimiter shares its counters across every replica.
type RedisLimiter struct {
	client evaler
	policy Policy
	prefix string
}

func NewRedisLimiter(client *redis.Client, policy Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy, prefix: "rl:" + policy.Name + ":"}
}

func (l *RedisLimiter) Policy() Policy { return l.policy }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := l.client.Eval(ctx, allowScript, []string{l.prefix + key}, l.policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit eval: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit eval: unexpected reply %v", res)
	}
	return decide(l.policy, res[0], time.Duration(res[1])*time.Millisecond), nil
}
