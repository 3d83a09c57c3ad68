package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRegistryUnavailable indicates the session backend is unreachable.
	ErrRegistryUnavailable = errors.New("session backend unavailable")
	// ErrSessionLimit is returned when the cap is reached and the policy
	// rejects new registrations instead of evicting.
	ErrSessionLimit = errors.New("session limit reached")
)

// Config holds registry tuning parameters.
type Config struct {
	// Prefix namespaces the registry's Redis keys.
	Prefix string
	// MaxSessions caps the live token ids per account. Zero disables the cap.
	MaxSessions int
	// EvictOldest selects the kick-out policy: evict the earliest-registered
	// session when the cap is reached, instead of rejecting the new one.
	EvictOldest bool
	// MaxLifetime prunes members older than the longest possible token
	// lifetime; an id whose token has expired no longer counts toward the cap.
	MaxLifetime time.Duration
}

// registerScript performs prune, cap check, eviction, and insertion as one
// atomic step. A concurrent reader never observes the set above the cap.
//
// Returns {1, evictedMember} on registration and {0, ""} on rejection.
const registerScript = `
local key = KEYS[1]
local member = ARGV[1]
local now = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local evict = tonumber(ARGV[4])
local life_ms = tonumber(ARGV[5])
local life_sec = tonumber(ARGV[6])

if life_ms > 0 then
  redis.call("ZREMRANGEBYSCORE", key, "-inf", now - life_ms)
end

if redis.call("ZSCORE", key, member) then
  if life_sec > 0 then
    redis.call("EXPIRE", key, life_sec)
  end
  return {1, ""}
end

local evicted = ""
if max > 0 and redis.call("ZCARD", key) >= max then
  if evict == 0 then
    return {0, ""}
  end
  local popped = redis.call("ZPOPMIN", key)
  if popped[1] then
    evicted = popped[1]
  end
end

redis.call("ZADD", key, now, member)
if life_sec > 0 then
  redis.call("EXPIRE", key, life_sec)
end
return {1, evicted}
`

var registerLua = redis.NewScript(registerScript)

// RedisRegistry is the Redis-backed session registry. Each account maps to a
// sorted set of token ids scored by registration time.
type RedisRegistry struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedisRegistry creates a registry backed by the given Redis client.
func NewRedisRegistry(redisClient redis.UniversalClient, cfg Config) (*RedisRegistry, error) {
	if cfg.MaxSessions < 0 {
		return nil, errors.New("MaxSessions must be >= 0")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ag"
	}
	return &RedisRegistry{redis: redisClient, config: cfg}, nil
}

func (r *RedisRegistry) key(account string) string {
	return r.config.Prefix + ":sess:" + account
}

// Register adds tokenID to the account's live set. When the cap would be
// exceeded it either evicts the oldest member (returned so the caller can
// revoke it) or rejects the registration with [ErrSessionLimit], per the
// configured policy. Registering an already-present id is a no-op.
func (r *RedisRegistry) Register(ctx context.Context, account, tokenID string) (string, error) {
	if account == "" || tokenID == "" {
		return "", errors.New("account and tokenID must not be empty")
	}

	evictFlag := 0
	if r.config.EvictOldest {
		evictFlag = 1
	}

	res, err := registerLua.Run(ctx, r.redis, []string{r.key(account)},
		tokenID,
		time.Now().UnixMilli(),
		r.config.MaxSessions,
		evictFlag,
		r.config.MaxLifetime.Milliseconds(),
		int64(r.config.MaxLifetime/time.Second),
	).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return "", fmt.Errorf("%w: unexpected script reply %v", ErrRegistryUnavailable, res)
	}
	status, _ := reply[0].(int64)
	evicted, _ := reply[1].(string)

	if status == 0 {
		return "", ErrSessionLimit
	}
	return evicted, nil
}

// Remove deletes tokenID from the account's live set. Removing an absent id
// is a no-op.
func (r *RedisRegistry) Remove(ctx context.Context, account, tokenID string) error {
	if account == "" || tokenID == "" {
		return nil
	}
	if err := r.redis.ZRem(ctx, r.key(account), tokenID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}

// Contains reports whether tokenID is a live, non-evicted session of the
// account.
func (r *RedisRegistry) Contains(ctx context.Context, account, tokenID string) (bool, error) {
	if account == "" || tokenID == "" {
		return false, nil
	}

	score, err := r.redis.ZScore(ctx, r.key(account), tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	if r.config.MaxLifetime > 0 {
		cutoff := time.Now().Add(-r.config.MaxLifetime).UnixMilli()
		if int64(score) < cutoff {
			return false, nil
		}
	}
	return true, nil
}

// Count returns the number of live sessions registered for the account.
func (r *RedisRegistry) Count(ctx context.Context, account string) (int, error) {
	n, err := r.redis.ZCard(ctx, r.key(account)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return int(n), nil
}
