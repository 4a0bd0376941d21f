package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is the counting window per IP
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 25
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 24 * time.Hour
)

// RedisRateLimiter counts requests per IP in Redis and blocks IPs that exceed the limit.
// It is shared across instances, unlike IPRateLimiter.
type RedisRateLimiter struct {
	client        *redis.Client
	Window        time.Duration
	MaxRequests   int
	BlockDuration time.Duration
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:        client,
		Window:        RateLimitWindow,
		MaxRequests:   RateLimitMaxRequests,
		BlockDuration: BlockedIPDuration,
	}
}

// Middleware rejects blocked IPs with 429. Redis failures fail open.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.RealClientIP(r)
		blockedKey := BlockedIPKeyPrefix + ip

		isBlocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			writeTooManyRequests(w, `{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`)
			return
		}

		rateLimitKey := RateLimitKeyPrefix + ip
		count, err := l.client.Incr(ctx, rateLimitKey).Result()
		if err == nil && count == 1 {
			err = l.client.Expire(ctx, rateLimitKey, l.Window).Err()
		}
		if err != nil {
			logger.FromContext(ctx).WithError(err).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if int(count) > l.MaxRequests {
			if err := l.client.Set(ctx, blockedKey, "1", l.BlockDuration).Err(); err != nil {
				logger.FromContext(ctx).WithError(err).Warn("failed to block ip")
			} else {
				logger.FromContext(ctx).WithField("ip", ip).Warn("ip blocked after exceeding rate limit")
			}
			writeTooManyRequests(w, fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.","retry_after":%d}`, int(l.Window.Seconds())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.MaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.MaxRequests-int(count)))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.Window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

func writeTooManyRequests(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(body))
}
