// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides a small thread-safe LRU cache with optional
// per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a thread-safe least-recently-used cache. When full, Put evicts
// the entry accessed longest ago. Entries older than the TTL are treated
// as absent.
type LRU[V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// NewLRU creates a cache holding at most capacity entries. A zero ttl
// keeps entries until they are evicted.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 128
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[V])
	if c.ttl > 0 && c.now().After(e.expires) {
		c.removeElement(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Put stores value under key.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[V])
		e.value = value
		e.expires = expires
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.removeElement(back)
		}
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expires: expires})
}

// Delete removes key from the cache.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len returns the number of stored entries, expired or not.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[V]) removeElement(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[V]).key)
	c.order.Remove(elem)
}
