package metadata

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores successful lookups.
type Cache interface {
	Get(key string) (any, bool)
	Add(key string, value any)
	Len() int
}

type lruCache struct {
	lru *expirable.LRU[string, any]
}

// NewLRUCache returns a cache bounded by size entries, each living for ttl.
func NewLRUCache(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 1
	}
	return &lruCache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (c *lruCache) Get(key string) (any, bool) { return c.lru.Get(key) }

func (c *lruCache) Add(key string, value any) { c.lru.Add(key, value) }

func (c *lruCache) Len() int { return c.lru.Len() }

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(string) (any, bool) { return nil, false }

func (NopCache) Add(string, any) {}

func (NopCache) Len() int { return 0 }
