package planner

import (
	"container/list"
	"sync"

	"github.com/xmute-dev/xmute/pkg/graph"
)

// planCache is a fixed-capacity LRU keyed on (start signature, target
// signature, cardinality, objective), grounded on the teacher's pattern of
// caching compiled Rego queries in pkg/policy.Engine: compile (here, search)
// once, reuse many times for repeated requests of the same shape.
type planCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key  string
	plan *graph.Plan
}

func newPlanCache(capacity int) *planCache {
	return &planCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func cacheKey(start State, target Target, objective string) string {
	keys := target.Pattern.Keys()
	return start.Properties.Signature(keys) + "|" + start.Cardinality.String() +
		"=>" + signatureOf(target.Pattern) + "|" + target.Cardinality.String() +
		"|obj=" + objective
}

func (c *planCache) get(key string) (*graph.Plan, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).plan, true
}

func (c *planCache) put(key string, plan *graph.Plan) {
	if c == nil || c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).plan = plan
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, plan: plan})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.entries, back.Value.(*cacheEntry).key)
		}
	}
}

// signatureOf encodes each constrained key of the pattern with its
// predicate's witness value, or "?" when the predicate has none, for the
// plan cache key. Predicates without a witness (existence, prefix/suffix,
// negated ones) all encode as "?". Unlike Properties.Signature it is
// computed from the pattern definition alone, not a runtime state.
func signatureOf(pt graph.PropertyPattern) string {
	keys := pt.Keys()
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "|"
		}
		if v, ok := pt[k].Witness(); ok {
			out += k + "=" + v.String()
		} else {
			out += k + "=?"
		}
	}
	return out
}
