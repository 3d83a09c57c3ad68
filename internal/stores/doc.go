// Package stores provides the revocation-list backends consumed by the gate.
//
// # Backends
//
//   - [RedisRevocations] — one Redis key per revoked token id, expiring when
//     the underlying token would have expired anyway.
//   - [MemoryRevocations] — expirable-LRU backend for single-node
//     deployments and tests.
//
// # Architecture boundaries
//
// A revocation backend answers exactly one question: has this token id been
// revoked. Absence means "not revoked", never "never existed".
//
// # What this package must NOT do
//
//   - Parse or interpret token text (it only ever sees token ids).
//   - Decide the fail-open/fail-closed policy; backends surface
//     [ErrRevocationUnavailable] and the gate applies policy.
package stores
