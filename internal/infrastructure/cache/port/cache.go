package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract the application depends on.
// Implementations must be safe for concurrent use and context-aware so
// callers control timeouts. Values are plain strings; serialization is the
// caller's concern.
type Cache interface {
	// Get fetches the value for key. Misses are reported as ErrMiss so
	// callers can tell them apart from transport failures.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A non-positive TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and returns how many were removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss signals a cache miss in a typed way.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
