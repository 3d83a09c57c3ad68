package authgate

import (
	"context"
	"time"
)

// RevocationStore is the logout blacklist: a time-bounded set of revoked
// token ids. Absence means "not revoked", never "never existed". Any
// key-value store with TTL support satisfies it.
type RevocationStore interface {
	// Revoke inserts tokenID with the given TTL, the maximum possible
	// remaining lifetime of the underlying token. Idempotent.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	// IsRevoked reports whether tokenID is on the list.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RetryLimiter counts consecutive failed authentications per account and
// locks the account once a threshold is reached. Updates are atomic per
// account key: concurrent failures never under-count.
type RetryLimiter interface {
	// RecordFailure increments the counter and reports whether the lockout
	// threshold has now been reached.
	RecordFailure(ctx context.Context, account string) (bool, error)
	// RecordSuccess resets the counter to zero.
	RecordSuccess(ctx context.Context, account string) error
	// IsLocked reports whether the account is currently locked.
	IsLocked(ctx context.Context, account string) (bool, error)
}

// SessionRegistry tracks each account's live token ids under a concurrency
// cap. Eviction and insertion are a single atomic step per account: no
// concurrent reader ever observes the set above the cap.
type SessionRegistry interface {
	// Register adds tokenID to the account's set, returning the evicted
	// token id when the kick-out policy displaced one, or
	// session.ErrSessionLimit when the policy rejects the registration.
	Register(ctx context.Context, account, tokenID string) (string, error)
	// Remove deletes tokenID from the account's set.
	Remove(ctx context.Context, account, tokenID string) error
	// Contains reports whether tokenID is a live, non-evicted session.
	Contains(ctx context.Context, account, tokenID string) (bool, error)
}
