// Package authgate answers one question per request: is this request allowed
// to proceed, and as whom. Requests carry compact signed tokens verified
// statelessly against per-account derived keys; on top of that the gate
// layers three pieces of server-side mutable state kept consistent under
// concurrent requests: a revocation list, a per-account concurrent-session
// cap with kick-out, and a brute-force lockout counter.
//
// The package is designed for concurrent server workloads: Gate methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Gate], [Builder], [Config],
// the store interfaces, and value types (Principal, Decision,
// MetricsSnapshot). Token signing lives in the token package, session caps
// in the session package, and the remaining store backends under internal/.
//
// # What this package must NOT do
//
//   - Render HTTP responses — the middleware package owns status codes and
//     headers; the Gate only returns decisions and errors.
//   - Reveal to the caller of a denied request which check failed: every
//     denial maps to the same unauthorized response, with the detail going
//     to logs and audit only.
//   - Reach for configuration through any ambient lookup; everything is
//     injected through [Builder].
package authgate
