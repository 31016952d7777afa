package dedup

import (
	cache "github.com/patrickmn/go-cache"
)

// EventCache remembers match hashes seen while processing a single event.
// Create one per event and pass it through that event's row processing.
type EventCache struct {
	cache *cache.Cache
}

// NewEventCache creates an empty event cache
func NewEventCache() *EventCache {
	return &EventCache{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// SeenAndRecord reports whether the hash was already seen, recording it if not
func (c *EventCache) SeenAndRecord(hash string) bool {
	return c.cache.Add(hash, struct{}{}, cache.NoExpiration) != nil
}

// Len returns the number of recorded hashes
func (c *EventCache) Len() int {
	return c.cache.ItemCount()
}
