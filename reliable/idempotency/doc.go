// Package idempotency deduplicates retried mutations by a client-supplied
// key. The first request carrying a key executes normally and its response is
// recorded; any later request with the same key on the same route replays the
// recorded status and body verbatim instead of executing again.
//
// Records are append-only and scoped to a logical route (method plus path
// template, never a concrete resource id), so the same key may be reused
// across different operations without collisions.
package idempotency
