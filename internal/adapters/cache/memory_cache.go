package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	summary   string
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of the SummaryCache port.
// There is no background cleanup: the scheduler calls EvictExpired once
// per batch, which bounds memory without a timer and accepts that an
// entry may live slightly past its TTL between batches.
type MemoryCache struct {
	entries map[string]entry
	mu      sync.RWMutex
	ttl     time.Duration
	logger  *zap.Logger
}

// NewMemoryCache creates a new in-memory summary cache.
func NewMemoryCache(ttl time.Duration, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Lookup retrieves a cached summary. Entries past their TTL are
// reported absent even if eviction has not removed them yet.
func (c *MemoryCache) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.summary, true
}

// Store saves a summary under the given key, replacing any previous
// entry for it.
func (c *MemoryCache) Store(key, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		summary:   summary,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// EvictExpired removes every entry expired as of now and returns how
// many were removed.
func (c *MemoryCache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		c.logger.Debug("Removed expired cache entries", zap.Int("count", evicted))
	}
	return evicted
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
