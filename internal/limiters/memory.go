package limiters

import (
	"context"
	"sync"
	"time"
)

// MemoryRetryLimiter is the in-process retry counter. Each account owns its
// own entry and lock, so unrelated accounts never contend.
type MemoryRetryLimiter struct {
	config  RetryConfig
	entries sync.Map // account -> *retryEntry
}

type retryEntry struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

// NewMemoryRetryLimiter creates an in-memory retry limiter.
func NewMemoryRetryLimiter(cfg RetryConfig) *MemoryRetryLimiter {
	return &MemoryRetryLimiter{config: cfg}
}

func (l *MemoryRetryLimiter) entry(account string) *retryEntry {
	if e, ok := l.entries.Load(account); ok {
		return e.(*retryEntry)
	}
	e, _ := l.entries.LoadOrStore(account, &retryEntry{})
	return e.(*retryEntry)
}

// RecordFailure increments the failure counter for account and reports
// whether the lockout threshold has been reached.
func (l *MemoryRetryLimiter) RecordFailure(_ context.Context, account string) (bool, error) {
	if account == "" {
		return false, nil
	}

	e := l.entry(account)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if e.count == 0 || (l.config.Window > 0 && now.After(e.windowEnd)) {
		e.count = 0
		e.windowEnd = now.Add(l.config.Window)
	}
	e.count++

	return e.count >= l.config.Limit, nil
}

// RecordSuccess clears the failure counter for account.
func (l *MemoryRetryLimiter) RecordSuccess(_ context.Context, account string) error {
	if account == "" {
		return nil
	}

	e := l.entry(account)
	e.mu.Lock()
	e.count = 0
	e.mu.Unlock()
	return nil
}

// IsLocked reports whether account has reached the failure threshold within
// the current window.
func (l *MemoryRetryLimiter) IsLocked(_ context.Context, account string) (bool, error) {
	if account == "" {
		return false, nil
	}

	e := l.entry(account)
	e.mu.Lock()
	defer e.mu.Unlock()

	if l.config.Window > 0 && time.Now().After(e.windowEnd) {
		e.count = 0
		return false, nil
	}
	return e.count >= l.config.Limit, nil
}
