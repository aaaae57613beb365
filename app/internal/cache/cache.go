package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is a cached value with its expiry
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache is an in-memory TTL cache keyed by string
type Cache[V any] struct {
	mu            sync.RWMutex
	items         map[string]Entry[V]
	defaultTTL    time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// New creates a cache with the given default TTL and starts its sweeper.
// Call Stop when done.
func New[V any](defaultTTL time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:       make(map[string]Entry[V]),
		defaultTTL:  defaultTTL,
		stopCleanup: make(chan struct{}),
	}

	sweep := defaultTTL
	if sweep < time.Second {
		sweep = time.Second
	}
	c.cleanupTicker = time.NewTicker(sweep)
	go c.cleanup()

	return c
}

func (c *Cache[V]) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.items {
				if now.After(entry.ExpiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			c.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the sweeper. Safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

// Get returns the live value stored under key
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists || !time.Now().Before(entry.ExpiresAt) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores value with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Entry[V]{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Fetch returns the cached value for key, calling load and caching its
// result on a miss. Errors are not cached.
func (c *Cache[V]) Fetch(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete removes a value
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeletePrefix removes every key starting with prefix
func (c *Cache[V]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Clear removes all values
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Entry[V])
}

// Len returns the number of stored entries, expired or not
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
