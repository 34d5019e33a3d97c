// Package convert defines the converter contract: the narrow interface the
// core interacts with plug-in converters through, plus the static
// declaration (ConverterDecl) the registry and planner consult.
package convert

import "github.com/xmute-dev/xmute/pkg/graph"

// ConverterDecl is a converter's static declaration: a stable id, its input
// and output ports, a costs bag, and the property-transformation contract
// (Produces/Preserves/Removes) the planner uses to compute successor states.
type ConverterDecl struct {
	// ID is the stable identifier, e.g. "serde.json-to-yaml". Unique within
	// a registry.
	ID string

	// Inputs maps input-port name to Port. At least one is required.
	Inputs map[string]graph.Port

	// Outputs maps output-port name to Port. At least one is required.
	Outputs map[string]graph.Port

	// Costs is a Properties bag of numeric costs, by convention including
	// quality_loss, speed, and size_ratio, each in [0.0, 1.0] or
	// tool-defined units.
	Costs graph.Properties

	// Preserves lists input keys carried through unchanged to the output
	// state when this converter runs.
	Preserves []string

	// Produces is the Properties overlay this converter's outputs are known
	// to introduce or overwrite, independent of any specific input state.
	Produces graph.Properties

	// Removes lists keys deleted from the output state (e.g. stale
	// checksums invalidated by the transformation).
	Removes []string

	// Capabilities lists host capabilities a plug-in implementation of this
	// converter needs (e.g. "net:outbound", "fs:temp"). Enforced by
	// Registry.SetAllowedCapabilities at registration time.
	Capabilities []string

	// ThreadSafe is false unless set (the zero value). When false, the
	// parallel executor serialises all calls to this converter id via a
	// per-id mutex.
	ThreadSafe bool

	// DeriveOption maps a produced property key to the option key that
	// controls it, for converters whose output depends on a caller-supplied
	// parameter (e.g. "resize" produces "width" from the "width" option).
	// The planner uses this to bind an option value that satisfies the
	// target pattern's constraint on that key, per seed scenario 2.
	DeriveOption map[string]string
}

// IsCardinalityChanging reports whether any port carries a list, making this
// converter a cardinality-changing transition rather than a 1→1 auto-mapped
// one.
func (d *ConverterDecl) IsCardinalityChanging() bool {
	for _, p := range d.Inputs {
		if p.List {
			return true
		}
	}
	for _, p := range d.Outputs {
		if p.List {
			return true
		}
	}
	return false
}

// OutputCardinalityAfter computes the planning-state cardinality tag after
// this converter applies, per spec §4.6: a list output port forces Many; a
// list input with a non-list output collapses to One (aggregation); a
// non-list/non-list converter is a 1→1 pass-through that leaves the current
// carrier's cardinality unchanged (auto-mapping over any existing list is an
// executor-level concern, not a planner state transition).
func (d *ConverterDecl) OutputCardinalityAfter(current graph.Cardinality) graph.Cardinality {
	hasListOutput := false
	for _, p := range d.Outputs {
		if p.List {
			hasListOutput = true
			break
		}
	}
	if hasListOutput {
		return graph.Many
	}
	hasListInput := false
	for _, p := range d.Inputs {
		if p.List {
			hasListInput = true
			break
		}
	}
	if hasListInput {
		return graph.One
	}
	return current
}

// Cost projects the Costs bag onto a scalar for the named objective keyword
// (quality, speed, size). Unknown objectives and missing keys cost 0, so the
// default objective (step count, handled by the planner itself) is
// unaffected by this method.
func (d *ConverterDecl) Cost(objective string) float64 {
	key := map[string]string{
		"quality": "quality_loss",
		"speed":   "speed",
		"size":    "size_ratio",
	}[objective]
	if key == "" {
		return 0
	}
	v, ok := d.Costs.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.Numeric()
	if objective == "speed" {
		// Speed is a rate; optimising for speed minimises the inverse.
		if n == 0 {
			return 0
		}
		return 1.0 / n
	}
	return n
}
