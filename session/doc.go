// Package session tracks the live token ids of each account and enforces a
// per-account concurrency cap with a configurable eviction ("kick-out")
// policy.
//
// # Registries
//
//   - [RedisRegistry] — sorted set per account scored by registration time;
//     cap check, eviction, and insertion run as one Lua script so a
//     concurrent reader never observes the set above the cap.
//   - [MemoryRegistry] — per-account mutex-guarded set with identical
//     semantics for single-node deployments and tests.
//
// # Eviction policy
//
// When a registration would exceed the cap, either the oldest member is
// evicted and returned to the caller (EvictOldest), or the new registration
// is rejected with [ErrSessionLimit]. The cap is never silently exceeded.
//
// # What this package must NOT do
//
//   - Import authgate or token (no upward imports).
//   - Revoke evicted tokens; the caller owns revocation.
package session
