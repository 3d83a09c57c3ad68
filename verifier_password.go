package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// PasswordVerifier authenticates account/password credentials. The retry
// limiter brackets the hash comparison: a locked account is rejected before
// the hash is even computed, a mismatch records a failure, and a match
// clears the counter.
type PasswordVerifier struct {
	accounts AccountProvider
	hasher   PasswordHasher
	retries  RetryLimiter
	logger   zerolog.Logger
}

// NewPasswordVerifier creates a password verifier. retries may be nil to
// disable lockout.
func NewPasswordVerifier(accounts AccountProvider, hasher PasswordHasher, retries RetryLimiter, logger zerolog.Logger) *PasswordVerifier {
	return &PasswordVerifier{accounts: accounts, hasher: hasher, retries: retries, logger: logger}
}

// Supports implements [Verifier].
func (v *PasswordVerifier) Supports(cred Credential) bool {
	return cred.Kind() == CredentialKindPassword
}

// Authenticate implements [Verifier].
func (v *PasswordVerifier) Authenticate(ctx context.Context, cred Credential) (*Principal, error) {
	pc, ok := cred.(PasswordCredential)
	if !ok {
		return nil, ErrChainExhausted
	}
	if pc.Account == "" || pc.Password == "" {
		return nil, ErrBadCredentials
	}

	if v.retries != nil {
		locked, err := v.retries.IsLocked(ctx, pc.Account)
		if err != nil {
			// Lockout is an availability tradeoff: an unreachable counter
			// must not take logins down with it.
			v.logger.Warn().Str("account", pc.Account).Err(err).Msg("retry limiter unavailable, continuing without lockout check")
		} else if locked {
			return nil, ErrLockedAccount
		}
	}

	acct, err := v.accounts.GetAccount(ctx, pc.Account)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Unknown accounts look exactly like wrong passwords so the
			// login endpoint cannot be used to enumerate accounts.
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}
	if acct.Disabled {
		return nil, ErrAccountDisabled
	}

	match, err := v.hasher.Verify(pc.Password, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}
	if !match {
		if v.retries != nil {
			locked, rerr := v.retries.RecordFailure(ctx, pc.Account)
			if rerr != nil {
				v.logger.Warn().Str("account", pc.Account).Err(rerr).Msg("failed to record authentication failure")
			} else if locked {
				return nil, ErrLockedAccount
			}
		}
		return nil, ErrBadCredentials
	}

	if v.retries != nil {
		if err := v.retries.RecordSuccess(ctx, pc.Account); err != nil {
			v.logger.Warn().Str("account", pc.Account).Err(err).Msg("failed to reset retry counter")
		}
	}

	displayName := acct.DisplayName
	if displayName == "" {
		displayName = acct.ID
	}

	return &Principal{
		AccountID:   acct.ID,
		DisplayName: displayName,
		Terminal:    pc.Terminal,
	}, nil
}
