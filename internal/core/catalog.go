package core

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/edvin/containerstacks/internal/provider"
)

const (
	catalogPlans   = "plans"
	catalogRegions = "regions"
	catalogImages  = "images"
	catalogApps    = "apps"

	catalogLoadTimeout = 30 * time.Second
)

// Catalog caches provider metadata (types, regions, images, marketplace
// apps) per provider row. Entries live until invalidated; concurrent misses
// for the same entry share one upstream call.
//
// Each provider has a generation that Invalidate bumps. A load started under
// an older generation still answers its waiters but is not stored, and new
// callers do not join it.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]any
	gens    map[string]uint64
	epoch   uint64
	group   singleflight.Group
}

func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

func catalogKey(providerID, kind string) string {
	return providerID + "/" + kind
}

func cached[T any](ctx context.Context, c *Catalog, providerID, kind string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := catalogKey(providerID, kind)

	c.mu.RLock()
	v, ok := c.entries[key]
	gen, epoch := c.gens[providerID], c.epoch
	c.mu.RUnlock()
	if ok {
		return v.([]T), nil
	}

	flightKey := key + "#" + strconv.FormatUint(epoch, 10) + "." + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		// the load is shared, so it must not die with the first caller
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()

		items, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[providerID] == gen && c.epoch == epoch {
			c.entries[key] = items
		}
		c.mu.Unlock()
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

func (c *Catalog) Plans(ctx context.Context, providerID string, svc provider.Service) ([]provider.Plan, error) {
	return cached(ctx, c, providerID, catalogPlans, svc.ListPlans)
}

func (c *Catalog) Regions(ctx context.Context, providerID string, svc provider.Service) ([]provider.Region, error) {
	return cached(ctx, c, providerID, catalogRegions, svc.ListRegions)
}

func (c *Catalog) Images(ctx context.Context, providerID string, svc provider.Service) ([]provider.Image, error) {
	return cached(ctx, c, providerID, catalogImages, svc.ListImages)
}

func (c *Catalog) Apps(ctx context.Context, providerID string, svc provider.Service) ([]provider.App, error) {
	return cached(ctx, c, providerID, catalogApps, svc.ListMarketplaceApps)
}

// HasType reports whether typeID is in the provider's live type listing.
func (c *Catalog) HasType(ctx context.Context, providerID string, svc provider.Service, typeID string) (bool, error) {
	plans, err := c.Plans(ctx, providerID, svc)
	if err != nil {
		return false, err
	}
	for _, p := range plans {
		if p.ID == typeID {
			return true, nil
		}
	}
	return false, nil
}

// PlanByType returns the live type matching typeID, if cached or loadable.
func (c *Catalog) PlanByType(ctx context.Context, providerID string, svc provider.Service, typeID string) (*provider.Plan, error) {
	plans, err := c.Plans(ctx, providerID, svc)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].ID == typeID {
			return &plans[i], nil
		}
	}
	return nil, nil
}

// RegionLabel resolves a region id to its display label, falling back to
// the id itself.
func (c *Catalog) RegionLabel(ctx context.Context, providerID string, svc provider.Service, regionID string) (string, error) {
	regions, err := c.Regions(ctx, providerID, svc)
	if err != nil {
		return regionID, err
	}
	for _, r := range regions {
		if r.ID == regionID {
			return r.Label, nil
		}
	}
	return regionID, nil
}

// Invalidate drops every cached entry of one provider.
func (c *Catalog) Invalidate(providerID string) {
	prefix := providerID + "/"
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[providerID]++
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *Catalog) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.epoch++
	c.mu.Unlock()
}
