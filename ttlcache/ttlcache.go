// Package ttlcache implements a generic, concurrency safe map whose entries
// expire a fixed duration after insertion. It is the single home of the
// staleness rule used across the assistant: an entry is valid only while its
// age is strictly below its TTL, so an entry whose age equals its TTL is
// already expired.
//
// Expiry is lazy. Expired entries simply stop being visible to Get, Touch and
// Values; they stay resident until Sweep, Invalidate or a replacing Put
// removes them. Nothing here performs I/O and no operation can fail.
package ttlcache

import (
	"sync"
	"time"
)

// Options configure a Cache.
type Options struct {
	// NowFunc supplies the current time. Override it in tests to drive
	// expiry deterministically. Defaults to time.Now.
	NowFunc func() time.Time
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

// expired reports whether the entry's age has reached its TTL.
func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) >= e.ttl
}

// Cache is a process local TTL map. The zero value is not usable; construct
// instances with New.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// New constructs an empty cache whose entries default to defaultTTL.
func New[K comparable, V any](defaultTTL time.Duration, optFns ...func(o *Options)) *Cache[K, V] {
	opts := Options{NowFunc: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        opts.NowFunc,
	}
}

// Get returns the value for key while it is still valid. Absent and expired
// keys both yield the zero value and false. Get never mutates the cache, so
// it works without the sweeper ever running.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put inserts or replaces the value for key at the default TTL. Replacing an
// entry resets its insertion time, restarting the expiry window.
func (c *Cache[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.defaultTTL)
}

// PutTTL inserts or replaces the value for key with an entry specific TTL.
func (c *Cache[K, V]) PutTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, insertedAt: c.now(), ttl: ttl}
}

// Touch resets the insertion time of a currently valid entry, sliding its
// expiry window forward. It reports false for absent or expired keys; an
// expired entry cannot be revived.
func (c *Cache[K, V]) Touch(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return false
	}
	e.insertedAt = c.now()
	c.entries[key] = e
	return true
}

// Invalidate removes the entry for key whether or not it has expired,
// reporting whether a removal occurred.
func (c *Cache[K, V]) Invalidate(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Sweep removes every expired entry and returns how many were dropped. An
// immediate second call returns 0.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports all resident entries, including expired ones not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Counts reports resident and valid entry counts in one consistent snapshot.
func (c *Cache[K, V]) Counts() (total, valid int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	total = len(c.entries)
	for _, e := range c.entries {
		if !e.expired(now) {
			valid++
		}
	}
	return total, valid
}

// Values returns a snapshot of all currently valid values. Order is
// unspecified.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	out := make([]V, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.expired(now) {
			out = append(out, e.value)
		}
	}
	return out
}
