package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cachedPlan is a plan together with the TTL it was stored under.
type cachedPlan struct {
	plan *Plan
	ttl  time.Duration
}

// IsExpired returns true if this entry has expired based on its TTL.
func (c *cachedPlan) IsExpired() bool {
	if c.ttl == 0 {
		return true // No caching
	}
	return time.Since(c.plan.Built) > c.ttl
}

// PlanCache holds computed plans keyed by Spec.CacheKey, so repeated requests
// for the same source and columns do not reload and re-merge the table.
type PlanCache struct {
	mu    sync.RWMutex
	plans map[string]*cachedPlan
	sf    singleflight.Group
}

// NewPlanCache creates an empty plan cache.
func NewPlanCache() *PlanCache {
	return &PlanCache{plans: make(map[string]*cachedPlan)}
}

// Get returns a fresh cached plan for spec over the named source, if any.
func (c *PlanCache) Get(spec Spec, source string) (*Plan, bool) {
	c.mu.RLock()
	entry, exists := c.plans[spec.CacheKey(source)]
	c.mu.RUnlock()

	if !exists || entry.IsExpired() {
		return nil, false
	}
	return entry.plan, true
}

// GetOrBuild retrieves a plan for spec over src from the cache, or builds a new
// one if it doesn't exist or has expired. Concurrent callers for the same key
// share a single build. With spec.CacheTTL == 0 every call builds.
func (c *PlanCache) GetOrBuild(ctx context.Context, spec Spec, src Source) (*Plan, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if spec.CacheTTL <= 0 {
		return BuildPlan(ctx, spec, src)
	}

	// Fast path: check if plan exists and is fresh
	if plan, ok := c.Get(spec, src.Name()); ok {
		return plan, nil
	}

	key := spec.CacheKey(src.Name())
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if plan, ok := c.Get(spec, src.Name()); ok {
			return plan, nil
		}

		plan, err := BuildPlan(ctx, spec, src)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.plans[key] = &cachedPlan{plan: plan, ttl: spec.CacheTTL}
		c.mu.Unlock()

		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Plan), nil
}

// Invalidate removes the plan for spec over the named source.
func (c *PlanCache) Invalidate(spec Spec, source string) {
	c.mu.Lock()
	delete(c.plans, spec.CacheKey(source))
	c.mu.Unlock()
}

// Len returns the number of stored plans, expired ones included.
func (c *PlanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}
