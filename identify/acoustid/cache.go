package acoustid

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// CacheStats holds cache statistics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
	HitRate   float64
}

// cacheEntry represents a single cache entry.
type cacheEntry struct {
	key       string
	value     interface{}
	expiresAt int64
	element   *list.Element
}

// TTLCache is a thread-safe TTL cache with LRU eviction. Expired entries are
// dropped lazily on access.
type TTLCache struct {
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	lruList    *list.List
	maxSize    int
	ttlSeconds int
	hits       int64
	misses     int64
	evictions  int64
}

// NewTTLCache creates a new TTL cache.
func NewTTLCache(maxSize, ttlSeconds int) *TTLCache {
	return &TTLCache{
		cache:      make(map[string]*cacheEntry),
		lruList:    list.New(),
		maxSize:    maxSize,
		ttlSeconds: ttlSeconds,
	}
}

// Get retrieves a value from the cache.
// Returns nil if not found or expired.
func (c *TTLCache) Get(key string) interface{} {
	c.mu.RLock()
	entry, exists := c.cache[key]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil
	}

	now := time.Now().Unix()
	if now >= entry.expiresAt {
		c.mu.Lock()
		// Re-check under the write lock
		if e, stillExists := c.cache[key]; stillExists && e == entry {
			delete(c.cache, key)
			if entry.element != nil {
				c.lruList.Remove(entry.element)
			}
		}
		c.mu.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil
	}

	c.mu.Lock()
	if entry.element != nil {
		c.lruList.MoveToFront(entry.element)
	}
	c.mu.Unlock()

	atomic.AddInt64(&c.hits, 1)
	return entry.value
}

// Set stores a value in the cache with TTL.
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Unix() + int64(c.ttlSeconds)

	if existing, exists := c.cache[key]; exists {
		existing.value = value
		existing.expiresAt = expiresAt
		if existing.element != nil {
			c.lruList.MoveToFront(existing.element)
		}
		return
	}

	if len(c.cache) >= c.maxSize {
		if back := c.lruList.Back(); back != nil {
			oldEntry := back.Value.(*cacheEntry)
			delete(c.cache, oldEntry.key)
			c.lruList.Remove(back)
			atomic.AddInt64(&c.evictions, 1)
		}
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	entry.element = c.lruList.PushFront(entry)
	c.cache[key] = entry
}

// Clear removes all entries from the cache.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cacheEntry)
	c.lruList = list.New()
}

// Size returns the current number of entries.
func (c *TTLCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats returns cache statistics.
func (c *TTLCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	evictions := atomic.LoadInt64(&c.evictions)

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		HitRate:   hitRate,
	}
}
