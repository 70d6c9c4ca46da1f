package cache

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get for missing and for expired entries;
// callers cannot tell the two apart, by contract.
var ErrCacheMiss = errors.New("cache: miss")

// CacheService represents a keyed, TTL-bounded memoization store shared by
// vendor discovery and API-fetch paths.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
