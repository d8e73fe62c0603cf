// Package cache provides a small thread-safe TTL cache with a size bound.
package cache

import (
	"sync"
	"time"
)

// Defaults used when the caller passes zero values.
const (
	DefaultTTL             = 15 * time.Minute
	DefaultMaxEntries      = 10000
	DefaultCleanupInterval = 5 * time.Minute
)

type entry[V any] struct {
	expiry  time.Time
	value   V
	created uint64
}

// TTL caches values for a fixed time-to-live. When full, the oldest entry
// by insertion is evicted.
type TTL[V any] struct {
	now        func() time.Time
	entries    map[string]entry[V]
	stopCh     chan struct{}
	ttl        time.Duration
	maxEntries int
	seq        uint64
	mu         sync.RWMutex
	stopOnce   sync.Once
}

// New creates a cache and starts its cleanup goroutine. Call Close to stop it.
func New[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	c := newTTL[V](ttl, maxEntries)
	go c.cleanup(DefaultCleanupInterval)
	return c
}

func newTTL[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &TTL[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
		now:        time.Now,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiry) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value, evicting the oldest entry if the cache is full.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.seq++
	c.entries[key] = entry[V]{
		value:   value,
		expiry:  c.now().Add(c.ttl),
		created: c.seq,
	}
}

func (c *TTL[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.created < oldestSeq {
			oldestKey, oldestSeq, found = k, e.created, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func (c *TTL[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *TTL[V]) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, key)
		}
	}
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *TTL[V]) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
