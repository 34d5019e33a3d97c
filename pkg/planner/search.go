package planner

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// DefaultDepthLimit is the search's default bound on plan length.
const DefaultDepthLimit = 16

// stepRecord is one link in a search node's path, carrying enough to
// assemble a graph.PlanStep once the goal is reached.
type stepRecord struct {
	ConverterID       string
	Decl              *convert.ConverterDecl
	Options           graph.Properties
	OutputProperties  graph.Properties
	OutputCardinality graph.Cardinality
}

type searchNode struct {
	state State
	g     float64
	h     int
	path  []stepRecord
	index int // heap index, maintained by container/heap
}

func (n *searchNode) f() float64 { return n.g + float64(n.h) }

// pathKey is the tie-break key: the sequence of converter ids joined, used
// for a total lexicographic order among equal-cost, equal-length paths.
func (n *searchNode) pathKey() string {
	ids := make([]string, len(n.path))
	for i, s := range n.path {
		ids[i] = s.ConverterID
	}
	return strings.Join(ids, "\x00")
}

type openQueue []*searchNode

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f() != b.f() {
		return a.f() < b.f()
	}
	if len(a.path) != len(b.path) {
		return len(a.path) < len(b.path)
	}
	return a.pathKey() < b.pathKey()
}
func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *openQueue) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Search runs the best-first search described in spec §4.3 and returns the
// winning Plan, or a *PlanError wrapping convert.KindNoPath if the depth
// bound is exceeded without reaching a goal state.
func Search(reg *registry.Registry, start State, target Target, objective string, depthLimit int) (*graph.Plan, error) {
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	relevant := relevantKeys(reg, target)

	closed := make(map[string]bool)
	open := &openQueue{}
	heap.Init(open)

	startNode := &searchNode{
		state: start,
		g:     0,
		h:     len(target.Pattern.Unsatisfied(start.Properties)),
	}
	heap.Push(open, startNode)

	var closestState graph.Properties = start.Properties
	bestH := startNode.h

	for open.Len() > 0 {
		n := heap.Pop(open).(*searchNode)

		if n.h < bestH {
			bestH = n.h
			closestState = n.state.Properties
		}

		if n.state.satisfies(target) {
			return assemblePlan(n), nil
		}

		if len(n.path) >= depthLimit {
			continue // depth exhausted; do not expand further
		}

		sig := n.state.signature(relevant)
		if closed[sig] {
			continue
		}
		closed[sig] = true

		for _, decl := range reg.Applicable(n.state.Properties, n.state.Cardinality) {
			c, ok := reg.Lookup(decl.ID)
			if !ok {
				continue
			}
			successor, options := expand(decl, n.state, target)
			nextSig := successor.signature(relevant)
			if closed[nextSig] {
				continue
			}

			step := stepRecord{
				ConverterID:       decl.ID,
				Decl:              decl,
				Options:           options,
				OutputProperties:  successor.Properties,
				OutputCardinality: successor.Cardinality,
			}
			newPath := make([]stepRecord, len(n.path)+1)
			copy(newPath, n.path)
			newPath[len(n.path)] = step

			_ = c // converter instance itself isn't needed by the search; the
			// registry re-resolves it by id at execution time (plans hold
			// ids, not references, per spec §3 Lifecycles).

			heap.Push(open, &searchNode{
				state: successor,
				g:     n.g + stepCost(decl, objective),
				h:     len(target.Pattern.Unsatisfied(successor.Properties)),
				path:  newPath,
			})
		}
	}

	return nil, newNoPath(start.Properties, target, closestState)
}

func stepCost(decl *convert.ConverterDecl, objective string) float64 {
	if objective == "" {
		return 1 // default objective: number of steps
	}
	return decl.Cost(objective)
}

// expand computes the successor state reached by applying decl to state,
// deriving any DeriveOption-bound values from the target pattern so that,
// e.g., a resize converter's width option is bound to the target's required
// bound (seed scenario 2).
func expand(decl *convert.ConverterDecl, state State, target Target) (State, graph.Properties) {
	options := graph.Properties{}
	produces := decl.Produces.Clone()
	for producedKey, optionKey := range decl.DeriveOption {
		if pred, ok := target.Pattern[producedKey]; ok {
			if v, ok := deriveValue(pred); ok {
				produces[producedKey] = v
				options[optionKey] = v
			}
		}
	}
	newProps := state.Properties.Apply(decl.Preserves, produces, decl.Removes)
	newCardinality := decl.OutputCardinalityAfter(state.Cardinality)
	return State{Properties: newProps, Cardinality: newCardinality}, options
}

// deriveValue extracts a concrete Value that satisfies pred, when pred's
// shape admits one directly (Exact, OneOf's first alternative, Le/Ge's
// bound, the nearest value inside Lt/Gt's bound, InRange's upper bound).
// Predicates without an extractable witness
// (existence, prefix/suffix, negation) report ok=false.
func deriveValue(pred graph.Predicate) (graph.Value, bool) {
	return pred.Witness()
}

// relevantKeys collects every property key any registered converter's ports,
// produces, or preserves mention, plus every key the target pattern
// constrains, so the closed-set signature ignores unrelated metadata.
func relevantKeys(reg *registry.Registry, target Target) []string {
	set := make(map[string]bool)
	for _, decl := range reg.Converters() {
		for _, p := range decl.Inputs {
			for k := range p.Pattern {
				set[k] = true
			}
		}
		for _, p := range decl.Outputs {
			for k := range p.Pattern {
				set[k] = true
			}
		}
		for k := range decl.Produces {
			set[k] = true
		}
		for _, k := range decl.Preserves {
			set[k] = true
		}
	}
	for k := range target.Pattern {
		set[k] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
