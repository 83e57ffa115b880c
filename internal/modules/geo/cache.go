package geo

import (
	"context"
	"fmt"
	"sync"

	"carpool/internal/types"
)

// PairCache memoizes straight-line distances between rounded coordinate
// pairs so identical lookups are served without recomputation. It is
// append-mostly: entries are never invalidated within the cache's lifetime.
type PairCache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, meters float64)
}

// PairKey rounds both coordinates to 5 decimal degrees (~1 m) and builds the
// cache key from the quadruple.
func PairKey(a, b types.Point) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", a.Lat, a.Lng, b.Lat, b.Lng)
}

// MemoryPairCache is the default in-process cache, safe for concurrent use.
type MemoryPairCache struct {
	mu sync.RWMutex
	m  map[string]float64
}

func NewMemoryPairCache() *MemoryPairCache {
	return &MemoryPairCache{m: make(map[string]float64)}
}

func (c *MemoryPairCache) Get(_ context.Context, key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *MemoryPairCache) Set(_ context.Context, key string, meters float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = meters
}

// Len reports the number of cached pairs.
func (c *MemoryPairCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
