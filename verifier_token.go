package authgate

import (
	"context"
	"fmt"

	"github.com/hqstack/authgate/token"
)

// TokenVerifier authenticates requests bearing a signed token. It verifies
// the signature itself rather than trusting claims handed to it, resolves
// the account's display name through the provider when one is configured,
// and maps the issuer claim to Principal.RunAsAccount.
type TokenVerifier struct {
	codec    *token.Codec
	accounts AccountProvider
}

// NewTokenVerifier creates a token verifier. accounts may be nil, in which
// case the display name falls back to the account id.
func NewTokenVerifier(codec *token.Codec, accounts AccountProvider) *TokenVerifier {
	return &TokenVerifier{codec: codec, accounts: accounts}
}

// Supports implements [Verifier].
func (v *TokenVerifier) Supports(cred Credential) bool {
	return cred.Kind() == CredentialKindToken
}

// Authenticate implements [Verifier].
func (v *TokenVerifier) Authenticate(ctx context.Context, cred Credential) (*Principal, error) {
	tc, ok := cred.(TokenCredential)
	if !ok {
		return nil, ErrChainExhausted
	}

	claims, err := v.codec.Verify(tc.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	terminal, ok := token.ParseTerminal(claims.Terminal)
	if !ok {
		return nil, fmt.Errorf("%w: unknown terminal %q", ErrInvalidToken, claims.Terminal)
	}

	displayName := claims.Account()
	if v.accounts != nil {
		acct, err := v.accounts.GetAccount(ctx, claims.Account())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
		}
		if acct.Disabled {
			return nil, ErrAccountDisabled
		}
		if acct.DisplayName != "" {
			displayName = acct.DisplayName
		}
	}

	return &Principal{
		AccountID:    claims.Account(),
		DisplayName:  displayName,
		Terminal:     terminal,
		RunAsAccount: claims.RunAs(),
	}, nil
}
