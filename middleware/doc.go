// Package middleware adapts [authgate.Gate] decisions to net/http.
//
// # Guards
//
//   - [Guard] — denies with a uniform 401 unless the gate admits the request.
//
// The guard reads the configured token header, calls Gate.Authenticate,
// writes the refresh-advisory header, and injects the principal into the
// request context for downstream handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into gate calls. It does NOT make
// authentication decisions itself; all decisions come from
// Gate.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or verify tokens directly (delegates to the gate).
//   - Reveal why a request was denied: every denial is the same 401 body.
//   - Touch backing stores (the gate handles I/O).
package middleware
