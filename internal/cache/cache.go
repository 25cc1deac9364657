// Package cache implements a concurrency-safe in-memory TTL cache used to
// serve repeated metadata lookups without spending upstream quota. Entries
// expire lazily: an expired entry is dropped on the read that observes it.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a generic TTL cache keyed by string. The zero value is not usable;
// construct instances with New.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New returns an empty cache whose entries live for ttl.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the cache's time source. Intended for tests.
func (c *Cache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key and whether it was present and fresh.
// An entry whose age has reached the TTL is removed and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its age.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Clear discards every entry and returns how many were dropped.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry[V])
	return n
}

// Len reports the number of stored entries, including any that have expired
// but have not yet been observed by a read.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MovieKey, SeriesKey, SeasonKey and RecommendKey build the namespaced cache
// keys shared by the lookup and recommendation paths. Titles are lowercased
// so that queries differing only in case hit the same entry.

func MovieKey(title string) string  { return "movie:" + norm(title) }
func SeriesKey(title string) string { return "series:" + norm(title) }

func SeasonKey(imdbID string, season int) string {
	return "season:" + norm(imdbID) + ":" + strconv.Itoa(season)
}

func RecommendKey(mediaType, genre string) string {
	return "rec:" + norm(mediaType) + ":" + norm(genre)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
