package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"polaroida/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// KeyedRateLimiter хранит отдельный лимитер на каждый ключ
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    rate.Limit
	burst    int
}

func NewKeyedRateLimiter(perMinute, burst int) *KeyedRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = perMinute
	}

	return &KeyedRateLimiter{
		limiters: make(map[string]*limiterEntry),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *KeyedRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccessed = now

	return entry.limiter.AllowN(now, 1)
}

// Cleanup удаляет лимитеры, к которым не обращались дольше limiterIdleTTL
func (l *KeyedRateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.limiters {
		if time.Since(entry.lastAccessed) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}

// RunCleanup периодически вызывает Cleanup до отмены ctx
func (l *KeyedRateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit ограничивает частоту запросов пользователя, для анонимных ключом служит IP
func RateLimit(l *KeyedRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if p, ok := PrincipalFrom(c); ok {
				key = p.UserID.String()
			}

			if !l.Allow(key) {
				return c.JSON(http.StatusTooManyRequests, response.ErrorResponse{
					Status:  response.StatusError,
					Error:   "too_many_requests",
					Details: "Upload rate limit exceeded, try again later",
				})
			}

			return next(c)
		}
	}
}
