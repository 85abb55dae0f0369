package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request from the given key is admitted.
// The decision happens before any other pipeline work.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

type windowCount struct {
	windowStart time.Time
	count       int
}

// LocalLimiter is a process-wide fixed-window rate limiter. Counters are
// keyed per caller and reset on window rollover; the increment and the
// threshold check happen under one lock so concurrent requests from the
// same key cannot both slip past the limit.
type LocalLimiter struct {
	limit    int
	window   time.Duration
	mu       sync.Mutex
	counters map[string]*windowCount
	stop     chan struct{}
	done     chan struct{}
}

// NewLocalLimiter creates an in-process fixed-window limiter admitting up to
// limit requests per window per key.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	l := &LocalLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCount),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go l.sweep()

	return l
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	wc, ok := l.counters[key]
	if !ok || now.Sub(wc.windowStart) >= l.window {
		wc = &windowCount{windowStart: now}
		l.counters[key] = wc
	}

	if wc.count >= l.limit {
		return false, nil
	}

	wc.count++
	return true, nil
}

// sweep periodically drops counters whose window has long expired so the
// map does not grow with one entry per client forever.
func (l *LocalLimiter) sweep() {
	defer close(l.done)

	interval := l.window * 10
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for key, wc := range l.counters {
				if wc.windowStart.Before(cutoff) {
					delete(l.counters, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *LocalLimiter) Close() error {
	close(l.stop)
	<-l.done
	return nil
}

// RedisLimiter implements sliding-window rate limiting over Redis, for
// deployments running more than one instance behind a load balancer.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter from a redis URL.
func NewRedisLimiter(redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}, nil
}

// NewRedisLimiterWithClient wraps an existing client (used in tests).
func NewRedisLimiterWithClient(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - r.window.Nanoseconds()

	// Lua script keeps the trim, count, and add atomic.
	script := `
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])

		redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

		local current = redis.call('ZCARD', key)

		if current < limit then
			redis.call('ZADD', key, now, now)
			redis.call('EXPIRE', key, 60)
			return 1
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{"ratelimit:" + key}, now, windowStart, r.limit).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return result == 1, nil
}

func (r *RedisLimiter) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// NoopLimiter always allows requests (rate limiting disabled, tests).
type NoopLimiter struct{}

func (n *NoopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (n *NoopLimiter) Close() error {
	return nil
}
