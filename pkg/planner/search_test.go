package planner

import (
	"context"
	"testing"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// stubConverter is a no-op Converter sufficient for planner tests, which
// only ever consult Decl(); Convert is never called by Search.
type stubConverter struct {
	decl *convert.ConverterDecl
}

func (s *stubConverter) Decl() *convert.ConverterDecl { return s.decl }
func (s *stubConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	return convert.Outputs{}, nil
}

func register(t *testing.T, reg *registry.Registry, decl *convert.ConverterDecl) {
	t.Helper()
	if err := reg.Register(&stubConverter{decl: decl}); err != nil {
		t.Fatalf("register %s: %v", decl.ID, err)
	}
}

func TestSearch_SingleStepConversion(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:      "serde.json-to-yaml",
		Inputs:  map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs: map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("yaml")},
	})

	start := graph.Properties{"format": graph.String("json")}
	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("yaml"))}, Cardinality: graph.One}

	plan, err := Search(reg, State{Properties: start, Cardinality: graph.One}, target, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.StepCount() != 1 {
		t.Fatalf("expected a 1-step plan, got %d", plan.StepCount())
	}
	if plan.Steps[0].ConverterID != "serde.json-to-yaml" {
		t.Errorf("expected serde.json-to-yaml, got %s", plan.Steps[0].ConverterID)
	}
}

func TestSearch_MultiStepChain(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.json-to-xml",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("xml")},
	})
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.xml-to-yaml",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("xml"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("yaml")},
	})

	start := graph.Properties{"format": graph.String("json")}
	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("yaml"))}, Cardinality: graph.One}

	plan, err := Search(reg, State{Properties: start, Cardinality: graph.One}, target, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.StepCount() != 2 {
		t.Fatalf("expected a 2-step plan, got %d", plan.StepCount())
	}
	if plan.Steps[0].ConverterID != "serde.json-to-xml" || plan.Steps[1].ConverterID != "serde.xml-to-yaml" {
		t.Errorf("unexpected step order: %s, %s", plan.Steps[0].ConverterID, plan.Steps[1].ConverterID)
	}
}

func TestSearch_NoPath(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:       "serde.json-to-xml",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("xml")},
	})

	start := graph.Properties{"format": graph.String("json")}
	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("mp4"))}, Cardinality: graph.One}

	_, err := Search(reg, State{Properties: start, Cardinality: graph.One}, target, "", 0)
	if err == nil {
		t.Fatal("expected a no-path error")
	}
	pe, ok := err.(*PlanError)
	if !ok || pe.Kind != convert.KindNoPath {
		t.Errorf("expected PlanError{Kind: NoPath}, got %v", err)
	}
}

func TestSearch_DerivesOptionFromTargetWitness(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:           "image.resize",
		Inputs:       map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("png"))}}},
		Outputs:      map[string]graph.Port{"out": {}},
		DeriveOption: map[string]string{"width": "width"},
	})

	start := graph.Properties{"format": graph.String("png"), "width": graph.Int(4000)}
	target := Target{Pattern: graph.PropertyPattern{"width": graph.Exact(graph.Int(1024))}, Cardinality: graph.One}

	plan, err := Search(reg, State{Properties: start, Cardinality: graph.One}, target, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, ok := plan.Steps[0].Options.Get("width"); !ok || !w.Equal(graph.Int(1024)) {
		t.Errorf("expected derived width option 1024, got %v", plan.Steps[0].Options)
	}
}

func TestSearch_PicksCheaperPathForQualityObjective(t *testing.T) {
	reg := registry.New()
	register(t, reg, &convert.ConverterDecl{
		ID:       "image.convert-lossy",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("bmp"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("jpeg")},
		Costs:    graph.Properties{"quality_loss": graph.Float(0.8)},
	})
	register(t, reg, &convert.ConverterDecl{
		ID:       "image.convert-lossless",
		Inputs:   map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("bmp"))}}},
		Outputs:  map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("jpeg")},
		Costs:    graph.Properties{"quality_loss": graph.Float(0.1)},
	})

	start := graph.Properties{"format": graph.String("bmp")}
	target := Target{Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("jpeg"))}, Cardinality: graph.One}

	plan, err := Search(reg, State{Properties: start, Cardinality: graph.One}, target, "quality", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Steps[0].ConverterID != "image.convert-lossless" {
		t.Errorf("expected the lower quality_loss converter to win under the quality objective, got %s", plan.Steps[0].ConverterID)
	}
}
