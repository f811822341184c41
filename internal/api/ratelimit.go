package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter решает, пропустить ли запрос с данным ключом
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// tokenBucketScript: KEYS[1] ключ, ARGV: now_ms, токенов в мс, емкость, ttl в секундах.
// Возвращает {allowed, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local per_ms = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
    tokens = capacity
    ts = now_ms
end

local elapsed = math.max(0, now_ms - ts)
tokens = math.min(capacity, tokens + elapsed * per_ms)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    retry_ms = math.ceil((1 - tokens) / per_ms)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', tostring(now_ms))
redis.call('EXPIRE', key, ttl)

return { allowed, retry_ms }
`)

// RedisLimiter общий для всех инстансов token bucket в Redis
type RedisLimiter struct {
	client *redis.Client
	prefix string
	rps    float64
	burst  int
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, rps float64, burst int) *RedisLimiter {
	ttl := time.Duration(float64(burst)/rps*float64(time.Second)) + time.Minute
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		rps:    rps,
		burst:  burst,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	args := []any{
		l.now().UnixMilli(),
		strconv.FormatFloat(l.rps/1000, 'f', -1, 64),
		l.burst,
		int64(l.ttl / time.Second),
	}

	vals, err := tokenBucketScript.Run(ctx, l.client, []string{l.prefix + key}, args...).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("run token bucket script: %w", err)
	}
	if len(vals) != 2 {
		return false, 0, fmt.Errorf("unexpected token bucket result: %v", vals)
	}

	return vals[0] == 1, time.Duration(vals[1]) * time.Millisecond, nil
}

// LocalLimiter token bucket в памяти процесса, по лимитеру на ключ
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	every   time.Duration
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		every:   2 * time.Minute,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()

	l.mu.Lock()
	ent, ok := l.entries[key]
	if !ok {
		ent = &localEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = ent
	}
	ent.lastSeen = now
	l.mu.Unlock()

	r := ent.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Cleanup удаляет лимитеры ключей, не встречавшихся дольше idleTTL
func (l *LocalLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

func (l *LocalLimiter) Name() string {
	return "rate-limiter-janitor"
}

// Run периодически чистит неактивные ключи до отмены ctx
func (l *LocalLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// RateLimit ограничивает запросы по IP клиента и маршруту. Ошибка лимитера пропускает запрос.
func RateLimit(limiter Limiter, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Path() + ":" + c.RealIP()

			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.Warn("Rate limiter unavailable, letting request through", zap.Error(err))
				return next(c)
			}

			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, errorResponse{
					Error:     "too_many_requests",
					Message:   "Too many attempts. Please wait a moment and try again.",
					Retryable: true,
				})
			}

			return next(c)
		}
	}
}
