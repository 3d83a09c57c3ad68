package authgate

import (
	"context"

	"github.com/hqstack/authgate/token"
)

// Principal is the authenticated identity resolved for a request. It is a
// plain value owned by the request; RunAsAccount is an optional data field,
// not a reference to another principal.
type Principal struct {
	AccountID   string
	DisplayName string
	Terminal    token.Terminal
	// RunAsAccount is set when the token was issued on behalf of another
	// identity, typically an administrator acting as AccountID.
	RunAsAccount string
}

// Account is the minimal account record the gate needs from the host
// application. Business data stays on the host's side of the
// [AccountProvider] boundary.
type Account struct {
	ID           string
	DisplayName  string
	PasswordHash string
	Disabled     bool
}

// AccountProvider resolves account records for the built-in verifiers.
// Implementations return [ErrAccountNotFound] for unknown ids.
type AccountProvider interface {
	GetAccount(ctx context.Context, accountID string) (*Account, error)
}

// PasswordHasher is the pluggable one-way function used by the password
// verifier. The password package provides an Argon2id implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Credential is a request-scoped piece of evidence presented to the
// authentication chain. Verifiers select the kinds they support.
type Credential interface {
	Kind() string
}

// CredentialKindToken and CredentialKindPassword name the built-in
// credential kinds.
const (
	CredentialKindToken    = "token"
	CredentialKindPassword = "password"
)

// TokenCredential carries a signed token. Claims may be pre-populated by
// the gate; verifiers must still verify Text before trusting anything.
type TokenCredential struct {
	Text   string
	Claims *token.Claims
}

// Kind implements [Credential].
func (TokenCredential) Kind() string { return CredentialKindToken }

// PasswordCredential carries an account/password pair for login.
type PasswordCredential struct {
	Account  string
	Password string
	Terminal token.Terminal
}

// Kind implements [Credential].
func (PasswordCredential) Kind() string { return CredentialKindPassword }
