// Package cache stores solver results between runs.
//
// The dimension search is deterministic but sweeps thousands of candidates,
// so its result is cached under a key derived from every search parameter.
// Three backends share the [Cache] interface:
//
//   - [FileCache]: one JSON file per entry under $XDG_CACHE_HOME/brickshell
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys come from a [Keyer] so that callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
