package authgate

import (
	"errors"
	"strings"
	"time"
)

// Config is the complete tuning surface of a [Gate]. Construct with
// [DefaultConfig] and override what the deployment needs; [Builder.Build]
// rejects configurations that fail [Config.Validate].
type Config struct {
	Token   TokenConfig
	Refresh RefreshConfig
	Session SessionConfig
	Retry   RetryConfig
	Stores  StoresConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig controls issuance and verification of signed tokens.
type TokenConfig struct {
	// Secret is the shared salt per-account signing keys derive from.
	Secret string
	// TTL is the default token lifetime.
	TTL time.Duration
	// MaxTTL bounds any issued token's lifetime and sizes revocation
	// retention: entries never need to outlive the longest token.
	MaxTTL time.Duration
}

// RefreshConfig controls the refresh-advisory response header.
type RefreshConfig struct {
	// Window is how close to expiry a token must be before a refresh is
	// considered advisable.
	Window time.Duration
	// AdviseComputed switches the advisory from the constant "false" the
	// original frontends were built against to the computed near-expiry
	// value. Off by default.
	AdviseComputed bool
}

// SessionConfig controls the per-account concurrent-session cap.
type SessionConfig struct {
	// Enabled turns session limiting on; when off the registry is never
	// consulted.
	Enabled bool
	// MaxSessions caps the live tokens per account.
	MaxSessions int
	// EvictOldest selects the kick-out policy: evict the earliest session
	// when the cap is reached (true) or reject the new login (false).
	EvictOldest bool
}

// RetryConfig controls the brute-force lockout counter.
type RetryConfig struct {
	Enabled bool
	// Limit is the failure count at which the account locks.
	Limit int
	// Window is the counting window and lockout duration; the counter
	// expires on its own, there is no manual unlock.
	Window time.Duration
}

// StoresConfig applies to all three backing stores.
type StoresConfig struct {
	// RedisPrefix namespaces every key the gate writes.
	RedisPrefix string
	// Timeout bounds each store round-trip so an unreachable backend can
	// never hang a request.
	Timeout time.Duration
	// FailClosed treats store unavailability as denial. The default is
	// fail-open with a logged warning: an unreachable revocation list
	// admits a token that signature verification already accepted.
	FailClosed bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. The token lifetimes
// mirror the deployment this design came from: ten-hour access tokens, a
// 24h ceiling, a 30-minute refresh window.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:    10 * time.Hour,
			MaxTTL: 24 * time.Hour,
		},
		Refresh: RefreshConfig{
			Window:         30 * time.Minute,
			AdviseComputed: false,
		},
		Session: SessionConfig{
			Enabled:     false,
			MaxSessions: 1,
			EvictOldest: true,
		},
		Retry: RetryConfig{
			Enabled: true,
			Limit:   5,
			Window:  30 * time.Minute,
		},
		Stores: StoresConfig{
			RedisPrefix: "ag",
			Timeout:     3 * time.Second,
			FailClosed:  false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Token.Secret) == "" {
		return errors.New("Token Secret must not be empty")
	}
	if len(c.Token.Secret) < 16 {
		return errors.New("Token Secret must be at least 16 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.MaxTTL < c.Token.TTL {
		return errors.New("Token MaxTTL must be >= TTL")
	}
	if c.Refresh.Window <= 0 {
		return errors.New("Refresh Window must be > 0")
	}
	if c.Session.Enabled && c.Session.MaxSessions <= 0 {
		return errors.New("Session MaxSessions must be > 0 when session limiting is enabled")
	}
	if c.Session.MaxSessions < 0 {
		return errors.New("Session MaxSessions must be >= 0")
	}
	if c.Retry.Enabled {
		if c.Retry.Limit <= 0 {
			return errors.New("Retry Limit must be > 0 when retry limiting is enabled")
		}
		if c.Retry.Window <= 0 {
			return errors.New("Retry Window must be > 0 when retry limiting is enabled")
		}
	}
	if c.Stores.Timeout <= 0 {
		return errors.New("Stores Timeout must be > 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
