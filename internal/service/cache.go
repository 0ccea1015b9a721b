package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simpledms/internal/model"
)

var (
	shareCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simpledms_share_cache_hits_total",
		Help: "Share lookups served from the in-process cache.",
	})
	shareCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simpledms_share_cache_misses_total",
		Help: "Share lookups that went to the metadata store.",
	})
)

// ShareCache is a per-instance LRU of share records with a TTL.
// A nil *ShareCache is valid and caches nothing.
type ShareCache struct {
	lru *expirable.LRU[string, model.Share]
}

// NewShareCache creates a cache holding at most size entries for ttl each.
// A non-positive size disables caching.
func NewShareCache(size int, ttl time.Duration) *ShareCache {
	if size <= 0 {
		return nil
	}
	return &ShareCache{lru: expirable.NewLRU[string, model.Share](size, nil, ttl)}
}

// Get returns a copy of the cached share.
func (c *ShareCache) Get(id string) (*model.Share, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.lru.Get(id)
	if !ok {
		shareCacheMisses.Inc()
		return nil, false
	}
	shareCacheHits.Inc()
	return &s, true
}

func (c *ShareCache) Set(s *model.Share) {
	if c == nil || s == nil {
		return
	}
	c.lru.Add(s.ID, *s)
}

// Delete invalidates the given ids.
func (c *ShareCache) Delete(ids ...string) {
	if c == nil {
		return
	}
	for _, id := range ids {
		c.lru.Remove(id)
	}
}

// Len reports the number of live entries.
func (c *ShareCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
