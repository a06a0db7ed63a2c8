// ABOUTME: Thread-safe TTL cache for deduplicating Telegram updates.
// ABOUTME: Defends the bridge against redelivered update batches after offset resets.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores the timestamp and list element for a cached update ID.
type cacheEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Cache tracks recently processed Telegram update IDs. The long-poll offset
// normally prevents duplicates, but a crash between processing and the next
// poll redelivers the batch; the cache absorbs those. TTL-based and
// size-limited, with a doubly-linked list for O(1) eviction of the oldest
// entry.
type Cache struct {
	mu      sync.RWMutex
	seen    map[int64]*cacheEntry
	order   *list.List // update IDs in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a dedupe cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[int64]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// CheckAndMark atomically checks whether an update ID has been seen and
// marks it if not. Returns true if the ID was already seen (duplicate),
// false if it's new and now marked.
func (c *Cache) CheckAndMark(updateID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.seen[updateID]
	if ok && time.Since(entry.timestamp) < c.ttl {
		return true
	}

	c.markLocked(updateID)
	return false
}

// markLocked records an update ID. Must be called with mu held.
func (c *Cache) markLocked(updateID int64) {
	now := time.Now()

	if entry, exists := c.seen[updateID]; exists {
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(updateID)
	c.seen[updateID] = &cacheEntry{
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	id, _ := front.Value.(int64)
	c.order.Remove(front)
	delete(c.seen, id)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, entry := range c.seen {
		if now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.seen, id)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
