// Package ratelimit throttles repeated attempts per key within a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ojtetr/tracker/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another attempt under key is allowed
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter shares counters between instances through Redis
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRedisLimiter wraps an existing client
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, script: redis.NewScript(fixedWindowScript)}
}

// Allow fails open when Redis is unreachable
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{"ratelimit:" + key}, ttl, limit).Int64()
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
		return true
	}
	return allowed == 1
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryLimiter creates an empty in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

// Allow counts one attempt for key
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) bool {
	if key == "" || limit <= 0 || win <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// drop expired windows so the map does not grow without bound
		for k, old := range l.windows {
			if !now.Before(old.resetAt) {
				delete(l.windows, k)
			}
		}
		w = &window{resetAt: now.Add(win)}
		l.windows[key] = w
	}

	w.count++
	return w.count <= limit
}
