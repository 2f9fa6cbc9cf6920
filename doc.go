// Package tiercache coordinates an ordered list of cache tiers behind a
// single cache API.
//
// Tier 0 is the fastest (and usually the smallest) store; the last tier is
// the slowest. Reads probe tiers in order and, on a hit in a slower tier,
// promote the value into every faster tier. Writes and deletes fan out to
// every tier in order.
//
// Components:
//   - provider.Provider: byte store with TTL (memory, Ristretto, BigCache,
//     Redis, SQLite). A *Cache is itself a Provider and may be used as a tier.
//   - Typed[V]: codec-backed facade for callers that want values, not bytes.
//   - Hooks / Logger: observation points; no-ops by default.
//
// Read-through pattern:
//
//	v, err := cache.GetOrSet(ctx, "user:42", func(ctx context.Context) ([]byte, error) {
//	    return loadUserFromDB(ctx, 42)
//	})
//
// The coordinator holds no lock of its own. Two concurrent misses on the same
// key each run their producer unless Options.Coalesce is set. Writes are
// sequential and not transactional: see FanOutPolicy.
package tiercache
