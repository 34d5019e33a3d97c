package planner

import "github.com/xmute-dev/xmute/pkg/graph"

// State is a planning state: a Properties bag together with a cardinality
// tag. Multi-port converters are treated as single atomic transitions; their
// internal port wiring is baked into the PlanStep the planner emits.
type State struct {
	Properties  graph.Properties
	Cardinality graph.Cardinality
}

// Target describes the goal: a pattern the final Properties must satisfy,
// plus the cardinality the caller requires of the output.
type Target struct {
	Pattern     graph.PropertyPattern
	Cardinality graph.Cardinality
}

// signature returns the canonical closed-set key for s, restricted to the
// keys any registered converter cares about, so unrelated metadata never
// fragments the search space.
func (s State) signature(relevantKeys []string) string {
	return s.Properties.Signature(relevantKeys) + "|card=" + s.Cardinality.String()
}

// satisfies reports whether s is a goal state for t.
func (s State) satisfies(t Target) bool {
	return s.Cardinality == t.Cardinality && t.Pattern.Match(s.Properties)
}
