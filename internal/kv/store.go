// Package kv provides the expiring key-value store that holds all session
// state shared between handler invocations. There is deliberately no
// enumeration operation: every key must be derivable from a session name or
// a connection id.
package kv

import (
	"context"
	"time"
)

// Store is a string-keyed store with per-key expiration.
type Store interface {
	// Get returns the value for key. The boolean reports whether the key
	// exists; a missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. A non-positive TTL
	// means the key does not expire.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
