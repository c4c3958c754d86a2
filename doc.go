// Package memocache memoizes function results in a shared TTL cache.
//
// A computation is registered once with Memoize. Each call derives a cache key from
// the computation's identity, its normalized arguments and a per-computation version
// token; a hit returns the stored result, a miss runs the computation and stores it.
// Every cache failure falls back to calling the computation directly.
//
// Components:
//   - Provider: byte store with TTL (memory, Redis, Ristretto, BigCache, bbolt, null).
//   - Codec[V]: (de)serializes V <-> []byte. JSON by default.
//   - versions.Registry: the version token per computation, kept in the same provider.
//
// Keys:
//
//	<fingerprint(16)><token(6)>   - memoized results
//	<identity>_memver             - version tokens (no expiry)
//
// Invalidation:
//
//	m.InvalidateAll(ctx)                  // new token; every old entry is orphaned
//	m.InvalidateOne(ctx, memocache.Pos(7)) // delete the entry of one call
//	m.DeleteVersion(ctx)                  // drop the token itself
//
// Orphaned entries are never enumerated; they expire through their TTL.
package memocache
