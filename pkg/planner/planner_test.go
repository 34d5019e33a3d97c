package planner

import (
	"testing"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

func buildJSONToYAMLRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.json-to-yaml",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("yaml")},
	})
	return reg
}

func TestPlanner_PlanWithoutCache(t *testing.T) {
	reg := buildJSONToYAMLRegistry(t)
	p := New(reg)

	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("yaml"))}, Cardinality: graph.One}
	plan, err := p.Plan(graph.Properties{"format": graph.String("json")}, graph.One, target, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.StepCount() != 1 {
		t.Fatalf("expected a 1-step plan, got %d", plan.StepCount())
	}
}

func TestPlanner_CacheHitReturnsSamePlan(t *testing.T) {
	reg := buildJSONToYAMLRegistry(t)
	p := New(reg, WithCache(10))

	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("yaml"))}, Cardinality: graph.One}
	start := graph.Properties{"format": graph.String("json")}

	first, err := p.Plan(start, graph.One, target, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Register a second, cheaper converter after the first plan is cached;
	// a cache hit should still return the original plan rather than
	// re-searching.
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.json-to-yaml-fast",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("yaml")},
	})

	second, err := p.Plan(start, graph.One, target, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Steps[0].ConverterID != first.Steps[0].ConverterID {
		t.Errorf("expected a cache hit to return the original plan's converter id %s, got %s",
			first.Steps[0].ConverterID, second.Steps[0].ConverterID)
	}
}

func TestPlanner_WithDepthLimit(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.a-to-b",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("a"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("b")},
	})
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.b-to-c",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("b"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("c")},
	})

	p := New(reg, WithDepthLimit(1))
	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("c"))}, Cardinality: graph.One}

	_, err := p.Plan(graph.Properties{"format": graph.String("a")}, graph.One, target, "")
	if err == nil {
		t.Fatal("expected a depth-limited search to fail to reach a 2-step target")
	}
}
