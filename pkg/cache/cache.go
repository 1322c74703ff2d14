// Package cache stores rendered chart artifacts.
//
// Rendering is deterministic: the same tree, collapse state and options
// always produce the same bytes, so artifacts are cached under a hash of
// their inputs. The [Cache] interface has four implementations:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for several serve instances
//   - [MongoCache]: document store backend with a TTL index
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. [NewScopedKeyer] prefixes every key, e.g. per
// serve session or tenant.
//
//	c, err := cache.Open(ctx, cache.Config{Backend: cache.BackendRedis, RedisAddr: "localhost:6379"})
//	key := cache.NewDefaultKeyer().ArtifactKey(treeHash, cache.ArtifactKeyOpts{Format: "svg"})
//	data, hit, err := c.Get(ctx, key)
//
// Backends created by [Open] report hits, misses and writes to the
// registered [observability.CacheHooks].
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases connections.
	Close() error
}

// Entry lifetimes.
const (
	TTLArtifact  = 7 * 24 * time.Hour
	TTLAnimation = 24 * time.Hour
	TTLSource    = 10 * time.Minute
)
