// Package cache provides a small in-process cache used to deduplicate
// order-book fetches across strategies within a scan cycle.
package cache

import "time"

// Cache is a TTL key-value cache.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. Returns false if the value was dropped.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Close releases cache resources.
	Close()
}
