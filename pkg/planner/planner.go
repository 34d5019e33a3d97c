package planner

import (
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// Planner searches a Registry for a Plan from a start State to a Target,
// optionally caching results. The zero value (via New) has caching
// disabled; pass WithCache to enable the LRU.
type Planner struct {
	registry   *registry.Registry
	depthLimit int
	cache      *planCache
}

// Option configures a Planner.
type Option func(*Planner)

// WithDepthLimit overrides the default search depth bound (16).
func WithDepthLimit(limit int) Option {
	return func(p *Planner) { p.depthLimit = limit }
}

// WithCache enables an LRU plan cache of the given capacity.
func WithCache(capacity int) Option {
	return func(p *Planner) { p.cache = newPlanCache(capacity) }
}

// New constructs a Planner over reg.
func New(reg *registry.Registry, opts ...Option) *Planner {
	p := &Planner{registry: reg, depthLimit: DefaultDepthLimit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan searches for a path from start to target under the given objective
// keyword ("quality", "speed", "size", or "" for step count). Deterministic:
// identical (registry, start, target, objective) yields byte-for-byte
// identical plans, since the search's tie-break order is total.
func (p *Planner) Plan(start graph.Properties, startCardinality graph.Cardinality, target Target, objective string) (*graph.Plan, error) {
	s := State{Properties: start, Cardinality: startCardinality}

	var key string
	if p.cache != nil {
		key = cacheKey(s, target, objective)
		if cached, ok := p.cache.get(key); ok {
			return cached, nil
		}
	}

	plan, err := Search(p.registry, s, target, objective, p.depthLimit)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.put(key, plan)
	}
	return plan, nil
}
