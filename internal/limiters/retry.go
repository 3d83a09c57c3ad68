package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRetryUnavailable indicates the retry-counter backend is unreachable.
var ErrRetryUnavailable = errors.New("retry backend unavailable")

// RetryConfig holds lockout tuning parameters.
type RetryConfig struct {
	// Limit is the failure count at which the account locks.
	Limit int
	// Window is both the counting window and the lockout duration; the
	// counter expires on its own, there is no manual unlock.
	Window time.Duration
}

// RedisRetryLimiter tracks consecutive failed authentications per account
// and reports lockout once the threshold is reached. Increments are atomic
// in Redis, so concurrent failures for one account never under-count.
type RedisRetryLimiter struct {
	redis  redis.UniversalClient
	config RetryConfig
	prefix string
}

// NewRedisRetryLimiter creates a retry limiter under the given key prefix.
func NewRedisRetryLimiter(redisClient redis.UniversalClient, prefix string, cfg RetryConfig) *RedisRetryLimiter {
	if prefix == "" {
		prefix = "ag"
	}
	return &RedisRetryLimiter{redis: redisClient, config: cfg, prefix: prefix}
}

func (l *RedisRetryLimiter) key(account string) string {
	return l.prefix + ":rty:" + account
}

// RecordFailure increments the failure counter for account and reports
// whether the lockout threshold has been reached.
func (l *RedisRetryLimiter) RecordFailure(ctx context.Context, account string) (bool, error) {
	if account == "" {
		return false, nil
	}

	count, err := l.redis.Incr(ctx, l.key(account)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRetryUnavailable, err)
	}

	if count == 1 && l.config.Window > 0 {
		// TTL on first failure makes the counter a rolling window that
		// doubles as the lockout duration.
		if err := l.redis.Expire(ctx, l.key(account), l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRetryUnavailable, err)
		}
	}

	return count >= int64(l.config.Limit), nil
}

// RecordSuccess clears the failure counter after a successful
// authentication.
func (l *RedisRetryLimiter) RecordSuccess(ctx context.Context, account string) error {
	if account == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(account)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRetryUnavailable, err)
	}
	return nil
}

// IsLocked reports whether account has reached the failure threshold within
// the current window.
func (l *RedisRetryLimiter) IsLocked(ctx context.Context, account string) (bool, error) {
	if account == "" {
		return false, nil
	}

	count, err := l.redis.Get(ctx, l.key(account)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRetryUnavailable, err)
	}
	return count >= int64(l.config.Limit), nil
}
