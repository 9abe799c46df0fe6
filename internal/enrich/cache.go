// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"time"

	"github.com/svskaushik/ArxivPulse/internal/cache"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// MemoryCache keeps lookups in a process-local LRU.
type MemoryCache struct {
	lru *cache.LRU[types.Metrics]
}

// NewMemoryCache returns a cache of the given capacity whose entries
// expire after ttl.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: cache.NewLRU[types.Metrics](capacity, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (types.Metrics, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Put(_ context.Context, key string, m types.Metrics) {
	c.lru.Put(key, m)
}
