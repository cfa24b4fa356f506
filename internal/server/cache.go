package server

import (
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	lru "github.com/hashicorp/golang-lru/v2"
)

// worldCache keeps the most recently used worlds in memory. A capacity of
// zero or less disables caching.
type worldCache struct {
	lru *lru.Cache[string, *world.World]
}

func newWorldCache(capacity int) *worldCache {
	if capacity <= 0 {
		return &worldCache{}
	}
	c, err := lru.New[string, *world.World](capacity)
	if err != nil {
		return &worldCache{}
	}
	return &worldCache{lru: c}
}

func (c *worldCache) Get(key string) (*world.World, bool) {
	if c.lru == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *worldCache) Put(key string, w *world.World) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, w)
}

func (c *worldCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
