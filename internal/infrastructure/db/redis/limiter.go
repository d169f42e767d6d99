package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterPrefix = "login_attempts"

// incrWindow counts one attempt and starts the window on the first one.
var incrWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Client is the subset of *redis.Client the limiter needs.
type Client interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginLimiter is a fixed-window login attempt counter shared across
// instances. Key format: login_attempts:<email>
type LoginLimiter struct {
	client Client
	max    int
	window time.Duration
}

// NewLoginLimiter allows max attempts per window. A non-positive max
// disables throttling.
func NewLoginLimiter(client Client, max int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{client: client, max: max, window: window}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	n, err := incrWindow.Run(ctx, l.client, []string{l.key(key)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("login limiter: %w", err)
	}
	return n <= int64(l.max), nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}

func (l *LoginLimiter) key(k string) string {
	return limiterPrefix + ":" + k
}
