// Package geo resolves probe paths to coarse locations. Geo data is
// decoration on the report: lookups may fail freely and collapse to the
// all-Unknown value, and they must never block pipeline progress beyond
// their own timeout.
package geo

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Resolver maps a host (or "" for the caller's own egress IP) to a
// location. Errors are internal; callers go through Cache, which absorbs
// them.
type Resolver interface {
	Resolve(ctx context.Context, host string) (model.GeoInfo, error)
}

// Cache fronts a Resolver with a bounded LRU keyed by host. Many nodes
// share an exit host, and the ""/own-IP lookup is identical for every node,
// so caching cuts most of the lookup traffic.
type Cache struct {
	resolver Resolver
	entries  *lru.Cache[string, model.GeoInfo]
}

// NewCache builds a cache of the given size. size must be positive.
func NewCache(r Resolver, size int) (*Cache, error) {
	entries, err := lru.New[string, model.GeoInfo](size)
	if err != nil {
		return nil, err
	}
	return &Cache{resolver: r, entries: entries}, nil
}

// Lookup never fails: any resolver error yields the all-Unknown value.
// Failed lookups are cached too, so a dead geo service is asked about each
// host at most once per run.
func (c *Cache) Lookup(ctx context.Context, host string) model.GeoInfo {
	if g, ok := c.entries.Get(host); ok {
		return g
	}
	g, err := c.resolver.Resolve(ctx, host)
	if err != nil {
		g = model.UnknownGeo()
	}
	c.entries.Add(host, g)
	return g
}
