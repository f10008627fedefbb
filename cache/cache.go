package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// ErrInvalidEntry is returned when a nil table is offered to the cache.
var ErrInvalidEntry = errors.New("invalid cache entry")

// entry is one cached table with its insertion time.
type entry struct {
	tbl     *table.Table
	addedAt time.Time
}

// Cache memoizes materialized tables so repeated requests for the same
// reference do not re-read the container. Materialization is
// idempotent, so serving a cached table is indistinguishable from
// re-reading, modulo the container changing on disk; the TTL bounds how
// long such a change can go unnoticed. The cache holds its own
// reference to every entry and releases it when the entry is dropped.
type Cache struct {
	entries map[string]entry
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a cache holding at most maxSize tables, each for at most
// ttl. A non-positive ttl disables expiration.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[string]entry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached table for key, or false on a miss. The table
// is retained for the caller, who must Release it. An expired entry
// counts as a miss and is dropped.
func (c *Cache) Get(key string) (*table.Table, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && !c.expired(e) {
		e.tbl.Retain()
		c.mu.RUnlock()
		return e.tbl, true
	}
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	// Re-check under the write lock; a fresher entry may have
	// replaced the one we saw.
	if cur, ok := c.entries[key]; ok && c.expired(cur) {
		delete(c.entries, key)
		cur.tbl.Release()
	}
	c.mu.Unlock()
	return nil, false
}

// Put stores a table under key, evicting the oldest entry when full.
// The cache takes its own reference; the caller keeps ownership of its
// own and releases it as usual.
func (c *Cache) Put(key string, tbl *table.Table) error {
	if tbl == nil {
		return ErrInvalidEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Retain before releasing a replaced entry so re-inserting the same
	// table is a no-op on its reference count.
	tbl.Retain()
	if old, exists := c.entries[key]; exists {
		old.tbl.Release()
	} else if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{tbl: tbl, addedAt: c.now()}
	return nil
}

// Size returns the number of live entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every entry, releasing the cache's references.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		e.tbl.Release()
	}
	c.entries = make(map[string]entry)
}

func (c *Cache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.addedAt) > c.ttl
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.addedAt.Before(oldest) {
			oldestKey, oldest = k, e.addedAt
			first = false
		}
	}
	if !first {
		c.entries[oldestKey].tbl.Release()
		delete(c.entries, oldestKey)
	}
}
