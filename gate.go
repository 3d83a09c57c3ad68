package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hqstack/authgate/internal/audit"
	"github.com/hqstack/authgate/session"
	"github.com/hqstack/authgate/token"
	"github.com/rs/zerolog"
)

// schemePrefix is the optional, case-insensitive scheme in front of the
// token payload.
const schemePrefix = "bearer"

// Decision is the gate's verdict on one request.
type Decision struct {
	// Principal is the authenticated identity. Never nil on an allowed
	// request, never set on a denied one.
	Principal *Principal
	// TokenID is the unique id of the presented token.
	TokenID string
	// RefreshAdvised signals the client should obtain a fresh token soon.
	// Unless Refresh.AdviseComputed is set, this is always false to match
	// the behavior existing frontends were built against.
	RefreshAdvised bool
}

// Gate is the request-level orchestrator. It owns no business state; the
// three injected stores are its only mutable collaborators and the codec
// and chain are stateless. All methods are safe for concurrent use.
type Gate struct {
	config      Config
	codec       *token.Codec
	revocations RevocationStore
	retries     RetryLimiter
	sessions    SessionRegistry
	chain       *Chain
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      zerolog.Logger
}

// Codec exposes the gate's token codec for issuing tokens out of band.
func (g *Gate) Codec() *token.Codec {
	if g == nil {
		return nil
	}
	return g.codec
}

// Close flushes the audit dispatcher. The gate itself holds no connections.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

// MetricsSnapshot copies the gate's counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports audit events dropped under backpressure.
func (g *Gate) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// Authenticate decides whether the request presenting headerValue may
// proceed, and as whom. Every failure is returned as an error from the
// taxonomy in errors.go; the caller converts all of them to the same
// unauthorized response. The gate never panics across this boundary.
func (g *Gate) Authenticate(ctx context.Context, headerValue string) (*Decision, error) {
	if g == nil {
		return nil, ErrGateNotReady
	}

	text := stripScheme(headerValue)
	if text == "" {
		return nil, g.deny(ctx, denyContext{}, ErrNoToken)
	}

	claims, err := g.codec.Verify(text)
	if err != nil {
		return nil, g.deny(ctx, denyContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	dc := denyContext{
		account:  claims.Account(),
		tokenID:  claims.TokenID(),
		terminal: claims.Terminal,
	}

	if g.codec.IsExpired(claims) {
		return nil, g.deny(ctx, dc, ErrExpiredToken)
	}

	revoked, err := g.isRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, g.deny(ctx, dc, err)
	}
	if revoked {
		return nil, g.deny(ctx, dc, ErrRevokedToken)
	}

	// Defense in depth: re-check the signature against the claimed subject
	// before anything downstream trusts the claims.
	if _, err := g.codec.Verify(text); err != nil {
		return nil, g.deny(ctx, dc, fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}

	principal, err := g.chain.Run(ctx, TokenCredential{Text: text, Claims: claims})
	if err != nil {
		return nil, g.deny(ctx, dc, err)
	}

	if g.config.Session.Enabled {
		evicted, err := g.register(ctx, claims.Account(), claims.TokenID())
		if err != nil {
			return nil, g.deny(ctx, dc, err)
		}
		if evicted != "" {
			g.revokeEvicted(ctx, claims.Account(), evicted)
		}
	}

	advised := false
	if g.config.Refresh.AdviseComputed {
		advised = g.codec.NearExpiry(claims, g.config.Refresh.Window)
	}

	g.metrics.Inc(MetricAllow)
	g.emitAudit(ctx, AuditEvent{
		EventType: "authenticate",
		Account:   principal.AccountID,
		RunAs:     principal.RunAsAccount,
		TokenID:   claims.TokenID(),
		Terminal:  string(principal.Terminal),
		Allowed:   true,
	})

	return &Decision{
		Principal:      principal,
		TokenID:        claims.TokenID(),
		RefreshAdvised: advised,
	}, nil
}

// Login verifies an account/password pair through the chain, issues a fresh
// token, and registers it with the session registry. The retry limiter is
// applied inside the password verifier.
func (g *Gate) Login(ctx context.Context, account, password string, terminal token.Terminal) (string, error) {
	return g.login(ctx, account, "", password, terminal)
}

// LoginRunAs is Login for an administrator acting on behalf of another
// account: the issued token carries runAs as its issuer and resolves to a
// principal whose RunAsAccount is set. Credentials verified are runAs's.
func (g *Gate) LoginRunAs(ctx context.Context, account, runAs, password string, terminal token.Terminal) (string, error) {
	if strings.TrimSpace(runAs) == "" {
		return "", ErrBadCredentials
	}
	return g.login(ctx, account, runAs, password, terminal)
}

func (g *Gate) login(ctx context.Context, account, runAs, password string, terminal token.Terminal) (string, error) {
	if g == nil {
		return "", ErrGateNotReady
	}

	verifyAs := account
	if runAs != "" {
		verifyAs = runAs
	}

	_, err := g.chain.Run(ctx, PasswordCredential{
		Account:  verifyAs,
		Password: password,
		Terminal: terminal,
	})
	if err != nil {
		g.metrics.Inc(MetricLoginFailure)
		g.logDenied(ctx, denyContext{account: verifyAs, terminal: string(terminal)}, err)
		g.emitAudit(ctx, AuditEvent{
			EventType: "login",
			Account:   verifyAs,
			Terminal:  string(terminal),
			Allowed:   false,
			ErrorKind: errorKind(err),
		})
		return "", err
	}

	text, err := g.codec.IssueRunAs(account, runAs, terminal, -1)
	if err != nil {
		g.metrics.Inc(MetricLoginFailure)
		return "", fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}
	claims, err := g.codec.Decode(text)
	if err != nil {
		g.metrics.Inc(MetricLoginFailure)
		return "", fmt.Errorf("%w: %v", ErrGateNotReady, err)
	}

	if g.config.Session.Enabled {
		evicted, err := g.register(ctx, account, claims.TokenID())
		if err != nil {
			g.metrics.Inc(MetricLoginFailure)
			return "", err
		}
		if evicted != "" {
			g.revokeEvicted(ctx, account, evicted)
		}
	}

	g.metrics.Inc(MetricLoginSuccess)
	g.emitAudit(ctx, AuditEvent{
		EventType: "login",
		Account:   account,
		RunAs:     runAs,
		TokenID:   claims.TokenID(),
		Terminal:  string(terminal),
		Allowed:   true,
	})

	return text, nil
}

// Logout revokes the presented token for its remaining lifetime and removes
// it from the session registry. Revoking an already revoked token is a
// no-op.
func (g *Gate) Logout(ctx context.Context, headerValue string) error {
	if g == nil {
		return ErrGateNotReady
	}

	text := stripScheme(headerValue)
	if text == "" {
		return ErrNoToken
	}

	claims, err := g.codec.Verify(text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ttl := g.codec.Remaining(claims)
	if ttl <= 0 {
		// Expired tokens deny on their own; nothing to blacklist.
		return nil
	}

	sctx, cancel := g.storeCtx(ctx)
	err = g.revocations.Revoke(sctx, claims.TokenID(), ttl)
	cancel()
	if err != nil {
		// A logout that cannot reach the blacklist must surface: the token
		// would stay usable.
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sctx, cancel = g.storeCtx(ctx)
	if err := g.sessions.Remove(sctx, claims.Account(), claims.TokenID()); err != nil {
		g.logger.Warn().Str("account", claims.Account()).Str("token_id", claims.TokenID()).Err(err).
			Msg("failed to remove session on logout")
	}
	cancel()

	g.metrics.Inc(MetricLogout)
	g.emitAudit(ctx, AuditEvent{
		EventType: "logout",
		Account:   claims.Account(),
		TokenID:   claims.TokenID(),
		Terminal:  claims.Terminal,
		Allowed:   true,
	})
	return nil
}

// Revoke puts tokenID on the blacklist for the maximum token lifetime.
// Used when the host invalidates sessions out of band.
func (g *Gate) Revoke(ctx context.Context, tokenID string) error {
	if g == nil {
		return ErrGateNotReady
	}
	sctx, cancel := g.storeCtx(ctx)
	defer cancel()
	if err := g.revocations.Revoke(sctx, tokenID, g.codec.MaxTTL()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// internals

// denyContext carries the identifying fields a denial should be logged and
// audited with.
type denyContext struct {
	account  string
	tokenID  string
	terminal string
}

// deny converts any internal failure into one uniform denial: counted,
// logged, audited, and returned for the caller to map to unauthorized.
func (g *Gate) deny(ctx context.Context, dc denyContext, err error) error {
	g.metrics.Inc(denyMetric(err))
	g.logDenied(ctx, dc, err)
	g.emitAudit(ctx, AuditEvent{
		EventType: "authenticate",
		Account:   dc.account,
		TokenID:   dc.tokenID,
		Terminal:  dc.terminal,
		Allowed:   false,
		ErrorKind: errorKind(err),
	})
	return err
}

func (g *Gate) logDenied(ctx context.Context, dc denyContext, err error) {
	g.logger.Warn().
		Str("account", dc.account).
		Str("token_id", dc.tokenID).
		Str("error_kind", errorKind(err)).
		Str("ip", clientIPFromContext(ctx)).
		Err(err).
		Msg("request denied")
}

func (g *Gate) emitAudit(ctx context.Context, event AuditEvent) {
	if g.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	event.IP = clientIPFromContext(ctx)
	g.audit.Emit(ctx, event)
}

// storeCtx bounds a store round-trip so an unreachable backend cannot hang
// the request.
func (g *Gate) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.config.Stores.Timeout)
}

// isRevoked applies the configured availability policy: fail-open admits
// the token with a warning and a counter bump, fail-closed treats the
// store outage as a denial.
func (g *Gate) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	sctx, cancel := g.storeCtx(ctx)
	defer cancel()

	revoked, err := g.revocations.IsRevoked(sctx, tokenID)
	if err == nil {
		return revoked, nil
	}
	if g.config.Stores.FailClosed {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	g.metrics.Inc(MetricStoreFallback)
	g.logger.Warn().Str("token_id", tokenID).Err(err).
		Msg("revocation store unavailable, failing open")
	return false, nil
}

// register applies the same policy to the session registry. A rejection by
// the cap is a real denial, not an availability fallback.
func (g *Gate) register(ctx context.Context, account, tokenID string) (string, error) {
	sctx, cancel := g.storeCtx(ctx)
	defer cancel()

	evicted, err := g.sessions.Register(sctx, account, tokenID)
	if err == nil {
		return evicted, nil
	}
	if errors.Is(err, session.ErrSessionLimit) {
		g.metrics.Inc(MetricSessionRejected)
		return "", ErrSessionLimit
	}
	if g.config.Stores.FailClosed {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	g.metrics.Inc(MetricStoreFallback)
	g.logger.Warn().Str("account", account).Str("token_id", tokenID).Err(err).
		Msg("session registry unavailable, failing open")
	return "", nil
}

// revokeEvicted blacklists a kicked-out session so its next request fails
// the revocation check. Best effort: the registry no longer contains it
// either way.
func (g *Gate) revokeEvicted(ctx context.Context, account, evicted string) {
	g.metrics.Inc(MetricSessionEvicted)

	sctx, cancel := g.storeCtx(ctx)
	defer cancel()
	if err := g.revocations.Revoke(sctx, evicted, g.codec.MaxTTL()); err != nil {
		g.logger.Warn().Str("account", account).Str("token_id", evicted).Err(err).
			Msg("failed to revoke evicted session")
		return
	}
	g.emitAudit(ctx, AuditEvent{
		EventType: "kickout",
		Account:   account,
		TokenID:   evicted,
		Allowed:   false,
		ErrorKind: errorKind(ErrRevokedToken),
	})
}

// stripScheme removes the optional case-insensitive scheme prefix in front
// of the token payload. Text without the prefix passes through unchanged.
func stripScheme(headerValue string) string {
	v := strings.TrimSpace(headerValue)
	if strings.EqualFold(v, schemePrefix) {
		return ""
	}
	if len(v) > len(schemePrefix) && strings.EqualFold(v[:len(schemePrefix)], schemePrefix) {
		rest := v[len(schemePrefix):]
		if rest[0] == ' ' {
			return strings.TrimSpace(rest)
		}
	}
	return v
}

// errorKind names an error from the denial taxonomy for logs and audit.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrRevokedToken):
		return "revoked_token"
	case errors.Is(err, ErrLockedAccount):
		return "locked_account"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, ErrSessionLimit):
		return "session_limit"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrChainExhausted):
		return "chain_exhausted"
	default:
		return "error"
	}
}

func denyMetric(err error) MetricID {
	switch {
	case errors.Is(err, ErrNoToken):
		return MetricDenyNoToken
	case errors.Is(err, ErrInvalidToken):
		return MetricDenyInvalidToken
	case errors.Is(err, ErrExpiredToken):
		return MetricDenyExpiredToken
	case errors.Is(err, ErrRevokedToken):
		return MetricDenyRevokedToken
	case errors.Is(err, ErrLockedAccount):
		return MetricDenyLockedAccount
	default:
		return MetricDenyChain
	}
}
