// Package cache provides the TTL-bounded lookup caches shared by the
// enrichment engine. Entries expire after a per-instance TTL; an expired
// entry reads as absent and is evicted lazily. Concurrent readers may
// recompute the same key after expiry, which is acceptable duplicated
// work — an entry is only ever inserted whole.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTL is a size- and time-bounded key/value cache.
type TTL[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewTTL builds a cache holding at most size entries, each valid for ttl
// from insertion.
func NewTTL[V any](size int, ttl time.Duration) *TTL[V] {
	if size <= 0 {
		size = 256
	}
	return &TTL[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key if it exists and is fresh.
func (c *TTL[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set inserts or overwrites the value for key, resetting its TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries (expired entries may still be
// counted until evicted).
func (c *TTL[V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry; used on explicit invalidation.
func (c *TTL[V]) Purge() {
	c.lru.Purge()
}
