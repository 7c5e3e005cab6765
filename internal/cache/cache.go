// Package cache provides an in-memory TTL cache for external lookups.
package cache

import (
	"sync"
	"time"
)

// DefaultEvictInterval is how often expired entries are swept.
const DefaultEvictInterval = 5 * time.Minute

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. A nil or disabled Cache never
// stores anything.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
// Enabled caches run an eviction goroutine until Close is called.
func New(enabled bool) *Cache {
	return NewWithInterval(enabled, DefaultEvictInterval)
}

// NewWithInterval is New with a custom eviction interval.
func NewWithInterval(enabled bool, interval time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if enabled {
		go c.evictLoop(interval)
	} else {
		close(c.done)
	}
	return c
}

// Enabled reports whether the cache stores entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Get retrieves a cached value. A nil data slice with ok=true is a cached
// negative result.
func (c *Cache) Get(key string) (data []byte, ok bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

// Set stores a value with a TTL. Non-positive TTLs are ignored.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) {
	if !c.Enabled() || ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{"enabled": false}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// Close stops the eviction goroutine and waits for it to exit.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// evictLoop periodically removes expired entries.
func (c *Cache) evictLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evict()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
