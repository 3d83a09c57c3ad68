// Package limiters provides the failed-authentication counters behind the
// gate's brute-force lockout.
//
// # Limiters
//
//   - [RedisRetryLimiter] — INCR/EXPIRE counter per account; the TTL set on
//     the first failure acts as the rolling lockout window.
//   - [MemoryRetryLimiter] — per-account in-process counter with the same
//     window semantics.
//
// Counters reset naturally when the window expires; there is no manual
// unlock path. A successful authentication clears the counter.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling internal package.
//   - Make policy decisions beyond counting; the password verifier decides
//     what a locked account means for the request.
package limiters
