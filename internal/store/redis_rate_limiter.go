package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "sync:ratelimit:"

// redisRateLimiter is a fixed-window counter per (user, device). Each window
// has its own key that expires with the window.
type redisRateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client redis.Cmdable, cfg config.RateLimit) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  cfg.Requests,
		window: cfg.Window,
		now:    time.Now,
	}
}

// Allow counts one session for (userID, deviceID) and reports whether it
// fits in the current window.
func (l *redisRateLimiter) Allow(ctx context.Context, userID, deviceID string) (RateLimitDecision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	key := rateLimitKey(userID, deviceID, windowStart)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "redisRateLimiter.Allow").
			Str("key", key).
			Msg("failed to increment rate limit counter")
		return RateLimitDecision{}, fmt.Errorf("%w: %w", ErrRateLimiterUnavailable, err)
	}

	return decide(int(incr.Val()), l.limit, windowStart.Add(l.window).Sub(now)), nil
}

func decide(count, limit int, untilReset time.Duration) RateLimitDecision {
	if count > limit {
		return RateLimitDecision{Allowed: false, Remaining: 0, RetryAfter: untilReset}
	}
	return RateLimitDecision{Allowed: true, Remaining: limit - count}
}

func rateLimitKey(userID, deviceID string, windowStart time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d", rateLimitKeyPrefix, userID, deviceID, windowStart.Unix())
}
