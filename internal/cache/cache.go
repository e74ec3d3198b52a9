// Package cache holds rendered publication pages in memory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Entry is one rendered page.
type Entry struct {
	HTML      string
	ETag      string
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache stores rendered HTML by key.
type Cache interface {
	// Get returns the entry for key if present and not expired.
	Get(key string) (*Entry, bool)

	// Set stores html under key for ttl and returns the stored entry.
	Set(key, html string, ttl time.Duration) *Entry

	// Invalidate removes an entry from the cache
	Invalidate(key string)

	// InvalidateAll removes all entries from the cache
	InvalidateAll()
}

// MemoryCache is an in-memory cache implementation with TTL support
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryCache creates a new in-memory cache that sweeps expired entries
// every cleanupInterval (one minute when zero).
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &MemoryCache{
		entries:         make(map[string]*Entry),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the entry for key if present and not expired.
func (c *MemoryCache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.IsExpired() {
		c.Invalidate(key)
		return nil, false
	}
	return entry, true
}

// Set stores html under key for ttl. The ETag is a content hash so equal
// renders share a tag across restarts.
func (c *MemoryCache) Set(key, html string, ttl time.Duration) *Entry {
	entry := &Entry{
		HTML:      html,
		ETag:      ETag(html),
		ExpiresAt: time.Now().Add(ttl),
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry
}

// Invalidate removes an entry from the cache
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll removes all entries from the cache
func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

// Stop stops the background cleanup goroutine
// Safe to call multiple times
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

// Len returns the number of entries in the cache (for testing)
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ETag returns a strong entity tag for body.
func ETag(body string) string {
	sum := sha256.Sum256([]byte(body))
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// Nop is a Cache that stores nothing, used when caching is disabled.
type Nop struct{}

func (Nop) Get(string) (*Entry, bool) { return nil, false }

func (Nop) Set(_ string, html string, _ time.Duration) *Entry {
	return &Entry{HTML: html, ETag: ETag(html)}
}

func (Nop) Invalidate(string) {}

func (Nop) InvalidateAll() {}
