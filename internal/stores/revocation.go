package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRevocationUnavailable indicates the revocation backend is unreachable.
var ErrRevocationUnavailable = errors.New("revocation backend unavailable")

const minRevocationTTL = time.Second

// RedisRevocations is the Redis-backed revocation list. Each revoked token
// id becomes its own key so the TTL can match the token's remaining
// lifetime exactly.
type RedisRevocations struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRevocations creates a revocation list under the given key prefix.
func NewRedisRevocations(redisClient redis.UniversalClient, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "ag"
	}
	return &RedisRevocations{redis: redisClient, prefix: prefix}
}

func (s *RedisRevocations) key(tokenID string) string {
	return s.prefix + ":rvk:" + tokenID
}

// Revoke marks tokenID revoked for ttl. Re-revoking an already revoked id is
// a no-op beyond extending the TTL; the operation is idempotent.
func (s *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return nil
	}
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}
	if err := s.redis.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID is on the revocation list.
func (s *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return n > 0, nil
}
