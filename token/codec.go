package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned when a token is malformed or its signature does not
// verify against the key derived from the claimed subject.
var ErrInvalid = errors.New("token invalid")

// claimTerminal is the private claim carrying the client terminal class.
const claimTerminal = "terminal"

// Config holds codec tuning parameters.
type Config struct {
	// Secret is the shared salt the per-account signing keys are derived
	// from. Compromise of one derived key exposes one account, not the salt.
	Secret string
	// TTL is the default token lifetime applied by Issue.
	TTL time.Duration
	// MaxTTL bounds the lifetime of any token the codec will issue. It is
	// also the longest a revocation entry ever needs to be retained.
	MaxTTL time.Duration
}

// Codec signs and verifies compact account tokens. A Codec is immutable and
// safe for concurrent use.
type Codec struct {
	config Config
}

// Claims is the decoded content of a signed token. Subject carries the
// account, Issuer the optional run-as account, ID the unique token id.
type Claims struct {
	Terminal string `json:"terminal"`
	jwt.RegisteredClaims
}

// Account returns the subject account the token was issued for.
func (c *Claims) Account() string {
	return c.Subject
}

// RunAs returns the acting account when the token was issued on behalf of
// another identity, or "" for a plain token.
func (c *Claims) RunAs() string {
	return c.Issuer
}

// TokenID returns the unique id (jti) of the token.
func (c *Claims) TokenID() string {
	return c.ID
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if len(cfg.Secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token TTL must be > 0")
	}
	if cfg.MaxTTL == 0 {
		cfg.MaxTTL = cfg.TTL
	}
	if cfg.MaxTTL < cfg.TTL {
		return nil, errors.New("token MaxTTL must be >= TTL")
	}

	return &Codec{config: cfg}, nil
}

// MaxTTL returns the longest lifetime the codec will sign. Revocation
// entries older than this can never shadow a live token.
func (c *Codec) MaxTTL() time.Duration {
	return c.config.MaxTTL
}

// Issue signs a fresh token for account on the given terminal, valid for ttl
// (the configured default when ttl is negative). The token id is a random
// UUID with dashes stripped.
func (c *Codec) Issue(account string, terminal Terminal, ttl time.Duration) (string, error) {
	return c.IssueRunAs(account, "", terminal, ttl)
}

// IssueRunAs signs a token for account whose issuer claim carries the acting
// runAs account, modeling an administrator operating on another identity.
func (c *Codec) IssueRunAs(account, runAs string, terminal Terminal, ttl time.Duration) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("account must not be empty")
	}
	if !terminal.Valid() {
		return "", fmt.Errorf("unknown terminal %q", terminal)
	}
	if ttl < 0 {
		ttl = c.config.TTL
	}
	if ttl > c.config.MaxTTL {
		ttl = c.config.MaxTTL
	}

	now := time.Now()
	claims := Claims{
		Terminal: string(terminal),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account,
			Issuer:    runAs,
			ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.deriveKey(account))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses text and checks its signature against the key derived from
// the claimed subject. Expiry is deliberately NOT validated here: the gate
// checks it as a separate step so that signature failures and expiry are
// distinguishable in audit logs. Any error wraps [ErrInvalid].
func (c *Codec) Verify(text string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(text, claims, func(t *jwt.Token) (interface{}, error) {
		inner, ok := t.Claims.(*Claims)
		if !ok || strings.TrimSpace(inner.Subject) == "" {
			return nil, errors.New("missing subject")
		}
		return c.deriveKey(inner.Subject), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing id or expiry", ErrInvalid)
	}
	return claims, nil
}

// Decode parses claims without verifying the signature. Diagnostics only;
// never base a trust decision on its result.
func (c *Codec) Decode(text string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(text, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return claims, nil
}

// IsExpired reports whether the token's expiry lies in the past. Pure
// comparison against the current clock; no side effects.
func (c *Codec) IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(time.Now())
}

// NearExpiry reports whether the token expires within the given window,
// signaling that the client should obtain a fresh token soon.
func (c *Codec) NearExpiry(claims *Claims, within time.Duration) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(time.Now().Add(within))
}

// Remaining returns the token's remaining lifetime, clamped to zero for
// expired tokens. Used to size revocation TTLs.
func (c *Codec) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	left := time.Until(claims.ExpiresAt.Time)
	if left < 0 {
		return 0
	}
	return left
}

// deriveKey produces the per-account HMAC key by hashing the configured
// salt concatenated with the account id. Accounts never share a key.
func (c *Codec) deriveKey(account string) []byte {
	sum := sha256.Sum256([]byte(c.config.Secret + account))
	return sum[:]
}
