package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryRegistry is the in-process session registry. Each account owns its
// own entry and lock; registrations for unrelated accounts never contend.
type MemoryRegistry struct {
	config   Config
	accounts sync.Map // account -> *accountSessions
}

type accountSessions struct {
	mu      sync.Mutex
	members []member
}

type member struct {
	tokenID string
	at      time.Time
}

// NewMemoryRegistry creates an in-memory registry.
func NewMemoryRegistry(cfg Config) (*MemoryRegistry, error) {
	if cfg.MaxSessions < 0 {
		return nil, errors.New("MaxSessions must be >= 0")
	}
	return &MemoryRegistry{config: cfg}, nil
}

func (r *MemoryRegistry) account(account string) *accountSessions {
	if a, ok := r.accounts.Load(account); ok {
		return a.(*accountSessions)
	}
	a, _ := r.accounts.LoadOrStore(account, &accountSessions{})
	return a.(*accountSessions)
}

// prune drops members older than the maximum token lifetime. Caller holds
// the account lock.
func (a *accountSessions) prune(maxLifetime time.Duration) {
	if maxLifetime <= 0 {
		return
	}
	cutoff := time.Now().Add(-maxLifetime)
	kept := a.members[:0]
	for _, m := range a.members {
		if m.at.After(cutoff) {
			kept = append(kept, m)
		}
	}
	a.members = kept
}

// Register adds tokenID to the account's live set, applying the cap and
// eviction policy atomically under the account's lock.
func (r *MemoryRegistry) Register(_ context.Context, account, tokenID string) (string, error) {
	if account == "" || tokenID == "" {
		return "", errors.New("account and tokenID must not be empty")
	}

	a := r.account(account)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune(r.config.MaxLifetime)

	for _, m := range a.members {
		if m.tokenID == tokenID {
			return "", nil
		}
	}

	evicted := ""
	if r.config.MaxSessions > 0 && len(a.members) >= r.config.MaxSessions {
		if !r.config.EvictOldest {
			return "", ErrSessionLimit
		}
		evicted = a.members[0].tokenID
		a.members = a.members[1:]
	}

	a.members = append(a.members, member{tokenID: tokenID, at: time.Now()})
	return evicted, nil
}

// Remove deletes tokenID from the account's live set.
func (r *MemoryRegistry) Remove(_ context.Context, account, tokenID string) error {
	if account == "" || tokenID == "" {
		return nil
	}

	a := r.account(account)
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, m := range a.members {
		if m.tokenID == tokenID {
			a.members = append(a.members[:i], a.members[i+1:]...)
			return nil
		}
	}
	return nil
}

// Contains reports whether tokenID is a live, non-evicted session of the
// account.
func (r *MemoryRegistry) Contains(_ context.Context, account, tokenID string) (bool, error) {
	if account == "" || tokenID == "" {
		return false, nil
	}

	a := r.account(account)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune(r.config.MaxLifetime)
	for _, m := range a.members {
		if m.tokenID == tokenID {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of live sessions registered for the account.
func (r *MemoryRegistry) Count(_ context.Context, account string) (int, error) {
	a := r.account(account)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune(r.config.MaxLifetime)
	return len(a.members), nil
}
