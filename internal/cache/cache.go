// Package cache provides a read-through TTL cache keyed by operation
// and arguments. It sits in front of the vault engine in the
// caller-facing layer; the engine itself never caches, so query results
// stay correct with or without it.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/checksum"
)

type entry struct {
	value   any
	expires time.Time
}

// Cache is a process-local TTL cache. A nil *Cache is valid and turns
// every operation into a no-op, so callers never need to branch on
// whether caching is enabled.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Key derives a stable cache key from an operation name and its
// arguments. Arguments are canonicalised through JSON so equal calls
// share a key regardless of how the struct was built.
func Key(op string, args any) string {
	data, err := json.Marshal(args)
	if err != nil {
		// Unmarshalable args get an op-scoped key; worst case is a
		// shared entry per operation, never a wrong payload type.
		data = nil
	}
	return checksum.Sum(append([]byte(op+":"), data...))
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the configured TTL.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(c.ttl)}
}

// Flush drops every entry. Called on any vault change: the cache has no
// per-path dependency tracking, so whole-cache invalidation is the only
// correct answer.
func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
