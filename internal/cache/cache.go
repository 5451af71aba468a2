// Package cache provides the freshness-bounded cache used by the screening
// pipeline: entries are keyed by (symbol, time bucket), concurrent requests
// for one key collapse into a single upstream fetch, and a bounded LRU keeps
// memory flat as buckets roll over.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultBucketWidth is the freshness window: all lookups inside one
// 5-minute bucket share the same cached value.
const DefaultBucketWidth = 5 * time.Minute

// DefaultCapacity bounds the number of tracked entries.
const DefaultCapacity = 1024

// Key addresses one cached value. Entries for a stale bucket are not evicted
// eagerly; a rolled-over bucket simply stops being addressed and ages out of
// the LRU.
type Key struct {
	Symbol string
	Bucket time.Time
}

// BucketOf maps a wall-clock time to its bucket id.
func BucketOf(now time.Time, width time.Duration) time.Time {
	return now.Truncate(width)
}

// entry is one cached slot. ready is closed once val/err are set; until then
// concurrent callers for the same key block on it instead of fetching.
type entry[V any] struct {
	ready chan struct{}
	val   V
	err   error
	elem  *list.Element // position in the LRU list; nil after removal
}

// Cache is a bounded, single-flight cache. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]*entry[V]
	lru     *list.List // list of Key, front = most recently used
	cap     int
}

// New creates a Cache holding at most capacity entries. A capacity <= 0
// falls back to DefaultCapacity.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		entries: make(map[Key]*entry[V]),
		lru:     list.New(),
		cap:     capacity,
	}
}

// GetOrFetch returns the cached value for key, fetching it at most once per
// key no matter how many callers arrive concurrently. A failed fetch leaves
// the key absent so a later caller retries; a key is either fully populated
// or absent, never half-written.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key Key, fetch func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if e.elem != nil {
			c.lru.MoveToFront(e.elem)
		}
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.val, e.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	e := &entry[V]{ready: make(chan struct{})}
	c.entries[key] = e
	e.elem = c.lru.PushFront(key)
	c.evictLocked()
	c.mu.Unlock()

	val, err := fetch(ctx)

	c.mu.Lock()
	if err != nil {
		// Drop the slot entirely; waiters still observe the error through
		// their reference to e.
		if cur, ok := c.entries[key]; ok && cur == e {
			c.removeLocked(key, e)
		}
		e.err = err
	} else {
		e.val = val
	}
	c.mu.Unlock()
	close(e.ready)

	return val, err
}

// Clear drops every entry immediately. In-flight fetches complete for their
// waiters but are not re-inserted.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		c.removeLocked(key, e)
	}
}

// Len returns the number of tracked entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked trims the LRU tail down to capacity. Caller holds mu.
func (c *Cache[V]) evictLocked() {
	for len(c.entries) > c.cap {
		back := c.lru.Back()
		if back == nil {
			return
		}
		key := back.Value.(Key)
		c.removeLocked(key, c.entries[key])
	}
}

// removeLocked detaches an entry from both the map and the list. Caller
// holds mu.
func (c *Cache[V]) removeLocked(key Key, e *entry[V]) {
	delete(c.entries, key)
	if e != nil && e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
	}
}
