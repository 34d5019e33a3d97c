package registry

import (
	"context"
	"testing"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
)

type fakeConverter struct {
	decl *convert.ConverterDecl
}

func (f *fakeConverter) Decl() *convert.ConverterDecl { return f.decl }

func (f *fakeConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	return convert.Outputs{}, nil
}

func jsonToYAML() *fakeConverter {
	return &fakeConverter{decl: &convert.ConverterDecl{
		ID:      "serde.json-to-yaml",
		Inputs:  map[string]graph.Port{"in": {Pattern: graph.PropertyPattern{"format": graph.Exact(graph.String("json"))}}},
		Outputs: map[string]graph.Port{"out": {}},
		Produces: graph.Properties{"format": graph.String("yaml")},
	}}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	c := jsonToYAML()
	if err := r.Register(c); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}

	got, ok := r.Lookup("serde.json-to-yaml")
	if !ok || got != c {
		t.Fatal("expected Lookup to return the registered converter")
	}
}

func TestRegistry_RegisterDuplicateID(t *testing.T) {
	r := New()
	if err := r.Register(jsonToYAML()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(jsonToYAML()); err == nil {
		t.Fatal("expected an error registering a duplicate id")
	}
}

func TestRegistry_RegisterRejectsPortlessConverter(t *testing.T) {
	r := New()
	c := &fakeConverter{decl: &convert.ConverterDecl{ID: "bad.converter"}}
	if err := r.Register(c); err == nil {
		t.Fatal("expected an error registering a converter with no ports")
	}
}

func TestRegistry_CapabilityAllowList(t *testing.T) {
	r := New()
	r.SetAllowedCapabilities([]string{"net:outbound"})

	c := &fakeConverter{decl: &convert.ConverterDecl{
		ID:           "net.fetch",
		Inputs:       map[string]graph.Port{"in": {}},
		Outputs:      map[string]graph.Port{"out": {}},
		Capabilities: []string{"fs:temp"},
	}}
	if err := r.Register(c); err == nil {
		t.Fatal("expected registration to fail for a disallowed capability")
	}

	ok := &fakeConverter{decl: &convert.ConverterDecl{
		ID:           "net.fetch2",
		Inputs:       map[string]graph.Port{"in": {}},
		Outputs:      map[string]graph.Port{"out": {}},
		Capabilities: []string{"net:outbound"},
	}}
	if err := r.Register(ok); err != nil {
		t.Fatalf("expected an allowed capability to register cleanly, got: %v", err)
	}
}

func TestRegistry_Applicable(t *testing.T) {
	r := New()
	if err := r.Register(jsonToYAML()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := graph.Properties{"format": graph.String("json")}
	applicable := r.Applicable(state, graph.One)
	if len(applicable) != 1 || applicable[0].ID != "serde.json-to-yaml" {
		t.Errorf("expected jsonToYAML to be applicable, got %v", applicable)
	}

	state["format"] = graph.String("xml")
	if applicable := r.Applicable(state, graph.One); len(applicable) != 0 {
		t.Errorf("expected no applicable converters for xml, got %v", applicable)
	}
}

func TestRegistry_ConvertersSortedByID(t *testing.T) {
	r := New()
	_ = r.Register(&fakeConverter{decl: &convert.ConverterDecl{
		ID: "z.last", Inputs: map[string]graph.Port{"in": {}}, Outputs: map[string]graph.Port{"out": {}},
	}})
	_ = r.Register(&fakeConverter{decl: &convert.ConverterDecl{
		ID: "a.first", Inputs: map[string]graph.Port{"in": {}}, Outputs: map[string]graph.Port{"out": {}},
	}})

	decls := r.Converters()
	if len(decls) != 2 || decls[0].ID != "a.first" || decls[1].ID != "z.last" {
		t.Errorf("expected sorted ids [a.first z.last], got %v", decls)
	}
}
