package authgate

import "errors"

var (
	// ErrNoToken is returned when the request carries no token at all.
	// Whether an anonymous request is acceptable is route policy, decided
	// by the middleware, not the gate.
	ErrNoToken = errors.New("no token presented")
	// ErrInvalidToken is returned for malformed or unverifiable tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token's expiry lies in the past.
	ErrExpiredToken = errors.New("expired token")
	// ErrRevokedToken is returned when a token id is on the revocation list.
	ErrRevokedToken = errors.New("revoked token")
	// ErrBadCredentials is returned when password verification fails or the
	// account is unknown; the two are indistinguishable on purpose.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrAccountDisabled is returned for credentials of a disabled account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrLockedAccount is returned once the retry limit has been reached;
	// the lock clears when the counter's window expires.
	ErrLockedAccount = errors.New("account locked")
	// ErrChainExhausted is returned when no verifier in the chain supported
	// the presented credential.
	ErrChainExhausted = errors.New("authentication chain exhausted")
	// ErrSessionLimit is returned when the concurrent-session cap is
	// reached and the eviction policy rejects new logins.
	ErrSessionLimit = errors.New("session limit reached")
	// ErrStoreUnavailable is returned when a backing store is unreachable
	// and the configured policy is fail-closed.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrAccountNotFound is returned by account providers for unknown ids.
	ErrAccountNotFound = errors.New("account not found")
	// ErrGateNotReady is returned when a nil or unbuilt gate is used.
	ErrGateNotReady = errors.New("gate not ready")
)
