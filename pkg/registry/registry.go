// Package registry implements the converter registry: an indexed, immutable
// collection of converters consulted by the planner. Grounded on the
// teacher's pkg/providers/host.Registry (append-only map guarded by a
// sync.RWMutex, capability allow-list validation at registration time).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
)

// Registry stores Converters indexed by their declared id. It is safe to
// share across threads: after construction it is only ever read, except for
// the explicit Register calls made while wiring up a process or test.
type Registry struct {
	mu                  sync.RWMutex
	converters          map[string]convert.Converter
	allowedCapabilities map[string]bool
}

// New creates an empty registry. With no allowed-capabilities restriction
// set, all capabilities are permitted (mirrors the teacher's
// ValidateCapabilities "empty allow-list means allow all" default).
func New() *Registry {
	return &Registry{converters: make(map[string]convert.Converter)}
}

// SetAllowedCapabilities restricts which capability strings a converter's
// decl may declare. Subsequent Register calls for decls requesting a
// capability outside this set fail.
func (r *Registry) SetAllowedCapabilities(capabilities []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowedCapabilities = make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		r.allowedCapabilities[c] = true
	}
}

// Register inserts c, failing if its id collides with an existing
// registration, if it declares zero input or output ports, or if it
// requests a capability outside the registry's allow-list (when set).
func (r *Registry) Register(c convert.Converter) error {
	decl := c.Decl()
	if decl == nil || decl.ID == "" {
		return fmt.Errorf("registry: converter has no id")
	}
	if len(decl.Inputs) == 0 {
		return fmt.Errorf("registry: converter %s declares no input ports", decl.ID)
	}
	if len(decl.Outputs) == 0 {
		return fmt.Errorf("registry: converter %s declares no output ports", decl.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.converters[decl.ID]; exists {
		return fmt.Errorf("registry: converter %s already registered", decl.ID)
	}
	if err := r.validateCapabilities(decl.Capabilities); err != nil {
		return fmt.Errorf("registry: converter %s: %w", decl.ID, err)
	}
	r.converters[decl.ID] = c
	return nil
}

func (r *Registry) validateCapabilities(capabilities []string) error {
	if len(r.allowedCapabilities) == 0 {
		return nil
	}
	var denied []string
	for _, c := range capabilities {
		if !r.allowedCapabilities[c] {
			denied = append(denied, c)
		}
	}
	if len(denied) > 0 {
		return fmt.Errorf("capabilities not allowed: %v", denied)
	}
	return nil
}

// Lookup fetches a converter by id.
func (r *Registry) Lookup(id string) (convert.Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[id]
	return c, ok
}

// Applicable yields, in sorted-by-id order, every decl whose every input
// port's pattern is satisfied by state at the given cardinality. Converters
// with more than one input port are only yielded when state is used as the
// pattern source for every port (the common case the planner expands
// directly); converters needing distinct per-port sources are assembled by
// the orchestrator from single-port applicability instead.
func (r *Registry) Applicable(state graph.Properties, cardinality graph.Cardinality) []*convert.ConverterDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*convert.ConverterDecl
	for _, c := range r.converters {
		decl := c.Decl()
		if declApplicable(decl, state, cardinality) {
			out = append(out, decl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// declApplicable reports whether decl can run against state at the given
// carrier cardinality. A List:true port only matches a Many carrier
// exactly (it consumes the whole list in one call); a non-list port
// matches regardless of carrier cardinality, since a One-item converter
// auto-maps across a Many carrier one item at a time (spec.md §4.6 row 1).
func declApplicable(decl *convert.ConverterDecl, state graph.Properties, cardinality graph.Cardinality) bool {
	for _, port := range decl.Inputs {
		if port.List && cardinality != graph.Many {
			return false
		}
		if !port.Pattern.Match(state) {
			return false
		}
	}
	return true
}

// Converters returns every registered decl, sorted by id, for introspection.
func (r *Registry) Converters() []*convert.ConverterDecl {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*convert.ConverterDecl, 0, len(r.converters))
	for _, c := range r.converters {
		out = append(out, c.Decl())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
