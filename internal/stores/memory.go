package stores

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryRevocationCap bounds the in-memory list so a revocation storm cannot
// exhaust memory. Evicting the oldest entry under pressure only ever drops
// the revocation closest to natural token expiry.
const memoryRevocationCap = 1 << 20

// MemoryRevocations is an in-process revocation list for single-node
// deployments and tests. Entries expire after the codec's maximum token
// lifetime, which upper-bounds every per-token TTL a caller could request.
type MemoryRevocations struct {
	cache *expirable.LRU[string, struct{}]
}

// NewMemoryRevocations creates an in-memory revocation list whose entries
// live for maxTokenLifetime.
func NewMemoryRevocations(maxTokenLifetime time.Duration) *MemoryRevocations {
	if maxTokenLifetime <= 0 {
		maxTokenLifetime = 24 * time.Hour
	}
	return &MemoryRevocations{
		cache: expirable.NewLRU[string, struct{}](memoryRevocationCap, nil, maxTokenLifetime),
	}
}

// Revoke marks tokenID revoked. The per-call ttl is ignored: the cache-wide
// lifetime already covers the longest possible remaining token lifetime.
func (s *MemoryRevocations) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	if tokenID == "" {
		return nil
	}
	s.cache.Add(tokenID, struct{}{})
	return nil
}

// IsRevoked reports whether tokenID is on the revocation list.
func (s *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return s.cache.Contains(tokenID), nil
}
