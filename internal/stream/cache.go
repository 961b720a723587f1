// Package stream resolves track identifiers to upstream audio URLs and
// relays the bytes to clients with range support.
package stream

import (
	"sync"
	"time"
)

type cacheEntry struct {
	url       string
	expiresAt time.Time
}

// URLCache memoizes resolved stream URLs for a bounded TTL. Upstream
// URLs are signed and short-lived, so entries expire instead of
// pinning a dead link.
type URLCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewURLCache creates an empty cache with the given entry TTL.
func NewURLCache(ttl time.Duration) *URLCache {
	return &URLCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached URL for key if present and not expired.
func (c *URLCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		c.Delete(key)
		return "", false
	}
	return e.url, true
}

// Put stores url under key and prunes any expired entries while it
// holds the lock.
func (c *URLCache) Put(key, url string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{url: url, expiresAt: now.Add(c.ttl)}
}

// Delete removes key from the cache.
func (c *URLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *URLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
