// Package token issues and verifies the compact signed credentials carried by
// authenticated requests. Tokens are HS256-signed JWTs whose signing key is
// derived per account, so a token only verifies against the account it names.
//
// # Architecture boundaries
//
// This package owns the [Codec] (sign/verify/decode) and the [Claims] model.
// It performs no I/O and holds no mutable state; revocation, session caps,
// and lockout live with the gate and its stores.
//
// # What this package must NOT do
//
//   - Consult any store: a verified token is not yet an authorized token.
//   - Import authgate, session, or any internal package (no upward imports).
//   - Trust claims obtained through [Codec.Decode]; that path skips the
//     signature and exists for diagnostics only.
package token
