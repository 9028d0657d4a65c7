// Package cache provides a small TTL cache used for per-zone fitted
// magnitude populations (24h invalidation) and regional price quotes.
package cache

import (
	"sync"
	"time"
)

const defaultTTL = 24 * time.Hour

// TTLCache stores values with per-entry expiry. Safe for concurrent use.
type TTLCache struct {
	entries    sync.Map
	defaultTTL time.Duration
	maxEntries int
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// New creates a TTL cache. maxEntries bounds memory; 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *TTLCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TTLCache{defaultTTL: ttl, maxEntries: maxEntries}
}

// Set stores a value. A non-positive ttl uses the cache default.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if c.maxEntries > 0 && c.size() >= c.maxEntries {
		c.evictExpired()
		if c.size() >= c.maxEntries {
			// Drop an arbitrary entry to stay within bound.
			c.entries.Range(func(k, _ interface{}) bool {
				c.entries.Delete(k)
				return false
			})
		}
	}
	c.entries.Store(key, cacheEntry{
		value:     value,
		expiresAt: time.Now().UTC().Add(ttl),
	})
}

// Get returns the cached value if present and unexpired.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry, ok := v.(cacheEntry)
	if !ok {
		c.entries.Delete(key)
		return nil, false
	}
	if time.Now().UTC().After(entry.expiresAt) {
		c.entries.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Delete removes a key.
func (c *TTLCache) Delete(key string) {
	c.entries.Delete(key)
}

func (c *TTLCache) size() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func (c *TTLCache) evictExpired() {
	now := time.Now().UTC()
	c.entries.Range(func(k, v interface{}) bool {
		if entry, ok := v.(cacheEntry); ok && now.After(entry.expiresAt) {
			c.entries.Delete(k)
		}
		return true
	})
}
