package executor

import (
	"context"
	"testing"

	"github.com/xmute-dev/xmute/pkg/budget"
	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// upperConverter uppercases its single input's bytes and sets format=upper.
type upperConverter struct{ threadSafe bool }

func (u *upperConverter) Decl() *convert.ConverterDecl {
	return &convert.ConverterDecl{
		ID:         "test.upper",
		Inputs:     map[string]graph.Port{"in": {}},
		Outputs:    map[string]graph.Port{"out": {}},
		Produces:   graph.Properties{"format": graph.String("upper")},
		ThreadSafe: u.threadSafe,
	}
}

func (u *upperConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	in := inputs["in"].Item
	out := make([]byte, len(in.Bytes))
	for i, b := range in.Bytes {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		out[i] = b
	}
	props := in.Properties.Apply(nil, graph.Properties{"format": graph.String("upper")}, nil)
	return convert.Outputs{"out": convert.Single(convert.Item{Bytes: out, Properties: props})}, nil
}

// concatConverter aggregates a list input port into one joined payload.
type concatConverter struct{}

func (c *concatConverter) Decl() *convert.ConverterDecl {
	return &convert.ConverterDecl{
		ID:      "test.concat",
		Inputs:  map[string]graph.Port{"items": {List: true}},
		Outputs: map[string]graph.Port{"out": {}},
	}
}

func (c *concatConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	items := inputs["items"].Items
	var out []byte
	for _, it := range items {
		out = append(out, it.Bytes...)
	}
	return convert.Outputs{"out": convert.Single(convert.Item{Bytes: out, Properties: graph.Properties{"format": graph.String("bundle")}})}, nil
}

func planFor(converterID string) *graph.Plan {
	return &graph.Plan{
		Steps: []graph.PlanStep{
			{
				ConverterID: converterID,
				Inputs:      map[string]graph.Binding{"in": graph.Initial(), "items": graph.Initial()},
				Outputs:     map[string]graph.Properties{"out": {}},
			},
		},
		FinalCardinality: graph.One,
	}
}

func TestSequential_Execute(t *testing.T) {
	reg := registry.New()
	_ = reg.Register(&upperConverter{threadSafe: true})
	exec := NewSequential(reg)

	job := Job{Plan: planFor("test.upper"), Input: []byte("hello"), Properties: graph.Properties{"format": graph.String("lower")}}
	res, err := exec.Execute(context.Background(), NewCancel(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Output) != "HELLO" {
		t.Errorf("expected HELLO, got %s", res.Output)
	}
}

func TestBounded_MemoryLimitExceeded(t *testing.T) {
	reg := registry.New()
	_ = reg.Register(&upperConverter{threadSafe: true})
	b := budget.New(1) // too small for any real payload
	exec := NewBounded(reg, b)

	job := Job{Plan: planFor("test.upper"), Input: []byte("hello world"), Properties: graph.Properties{}}
	_, err := exec.Execute(context.Background(), NewCancel(), job)
	if err == nil {
		t.Fatal("expected a memory limit error")
	}
	ee, ok := err.(*ExecuteError)
	if !ok || ee.Kind != convert.KindMemoryLimitExceeded {
		t.Errorf("expected ExecuteError{Kind: MemoryLimitExceeded}, got %v", err)
	}
}

func TestParallel_ExecuteBatchPreservesOrder(t *testing.T) {
	reg := registry.New()
	_ = reg.Register(&upperConverter{threadSafe: true})
	b := budget.New(budget.Unbounded)
	exec := NewParallel(reg, b, 4)

	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{Plan: planFor("test.upper"), Input: []byte{byte('a' + i)}, Properties: graph.Properties{}}
	}

	results := exec.ExecuteBatch(context.Background(), NewCancel(), jobs)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("job %d: unexpected error: %v", i, r.Err)
		}
		want := byte('A' + i)
		if len(r.Result.Output) != 1 || r.Result.Output[0] != want {
			t.Errorf("job %d: expected %q, got %q", i, want, r.Result.Output)
		}
	}
}

func TestOrchestrator_RunAggregatingBuildsDiscreteItems(t *testing.T) {
	reg := registry.New()
	_ = reg.Register(&concatConverter{})
	exec := NewSequential(reg)
	orch := NewOrchestrator(exec)

	items := []ExecItem{
		{Bytes: []byte("frame1"), Properties: graph.Properties{"format": graph.String("png")}},
		{Bytes: []byte("frame2"), Properties: graph.Properties{"format": graph.String("png")}},
		{Bytes: []byte("frame3"), Properties: graph.Properties{"format": graph.String("png")}},
	}

	plan := planFor("test.concat")
	res, err := orch.RunAggregating(context.Background(), NewCancel(), plan, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Output) != "frame1frame2frame3" {
		t.Errorf("expected concatenated frames, got %q", res.Output)
	}
}

func TestOrchestrator_RunOneToOneAutoMaps(t *testing.T) {
	reg := registry.New()
	_ = reg.Register(&upperConverter{threadSafe: true})
	exec := NewSequential(reg)
	orch := NewOrchestrator(exec)

	items := []ExecItem{
		{Bytes: []byte("a")},
		{Bytes: []byte("b")},
	}
	results := orch.RunOneToOne(context.Background(), NewCancel(), planFor("test.upper"), items)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if string(results[0].Result.Output) != "A" || string(results[1].Result.Output) != "B" {
		t.Errorf("expected [A B], got [%s %s]", results[0].Result.Output, results[1].Result.Output)
	}
}
