package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xmute-dev/xmute/pkg/graph"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return eng
}

func TestNewEngine_LoadsBuiltinPolicies(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	if len(policies) == 0 {
		t.Fatal("no built-in policies loaded")
	}

	expected := []string{"known-options", "geometry-range", "watermark-bounds"}
	for _, name := range expected {
		if _, err := eng.GetPolicy(name); err != nil {
			t.Errorf("expected built-in policy %q: %v", name, err)
		}
	}
}

func TestEvaluate_AllowsOptionsWithinVocabulary(t *testing.T) {
	eng := newTestEngine(t)

	options := graph.Properties{
		"format":   graph.String("jpeg"),
		"quality":  graph.Int(85),
		"gravity":  graph.String("center"),
		"scale":    graph.Float(0.5),
		"max_width": graph.Int(1024),
	}

	result, err := eng.Evaluate(context.Background(), options, "image.resize")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if !result.Allowed {
		t.Errorf("expected options to be allowed, got violations: %+v", result.Violations)
	}
}

func TestEvaluate_RejectsUnknownOptionKey(t *testing.T) {
	eng := newTestEngine(t)

	options := graph.Properties{
		"format":        graph.String("jpeg"),
		"pixel_offset_x": graph.Int(4),
	}

	result, err := eng.Evaluate(context.Background(), options, "image.resize")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if result.Allowed {
		t.Error("expected an out-of-vocabulary key to be rejected")
	}

	found := false
	for _, v := range result.Violations {
		if v.Policy == "known-options" && v.Key == "pixel_offset_x" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a known-options violation on pixel_offset_x, got %+v", result.Violations)
	}
}

func TestEvaluate_RejectsOutOfRangeQuality(t *testing.T) {
	eng := newTestEngine(t)

	options := graph.Properties{"quality": graph.Int(150)}

	result, err := eng.Evaluate(context.Background(), options, "image.resize")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if result.Allowed {
		t.Error("expected quality of 150 to be rejected")
	}
}

func TestEvaluate_RejectsInvalidGravity(t *testing.T) {
	eng := newTestEngine(t)

	options := graph.Properties{"gravity": graph.String("north-by-northwest")}

	result, err := eng.Evaluate(context.Background(), options, "image.resize")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if result.Allowed {
		t.Error("expected an unknown gravity enum value to be rejected")
	}
}

func TestEvaluate_RejectsWatermarkOpacityOutOfBounds(t *testing.T) {
	eng := newTestEngine(t)

	options := graph.Properties{"watermark_opacity": graph.Float(1.5)}

	result, err := eng.Evaluate(context.Background(), options, "image.watermark")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if result.Allowed {
		t.Error("expected watermark_opacity of 1.5 to be rejected")
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)

	const name = "known-options"
	if err := eng.DisablePolicy(name); err != nil {
		t.Fatalf("failed to disable policy: %v", err)
	}

	p, err := eng.GetPolicy(name)
	if err != nil {
		t.Fatalf("failed to get policy: %v", err)
	}
	if p.Enabled {
		t.Error("policy should be disabled")
	}

	options := graph.Properties{"bogus_key": graph.String("x")}
	result, err := eng.Evaluate(context.Background(), options, "image.resize")
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	for _, v := range result.Violations {
		if v.Policy == name {
			t.Error("disabled policy should not generate violations")
		}
	}

	if err := eng.EnablePolicy(name); err != nil {
		t.Fatalf("failed to enable policy: %v", err)
	}
	p, err = eng.GetPolicy(name)
	if err != nil {
		t.Fatalf("failed to get policy: %v", err)
	}
	if !p.Enabled {
		t.Error("policy should be enabled")
	}
}

func TestReloadPolicies(t *testing.T) {
	eng := newTestEngine(t)

	initial := len(eng.ListPolicies())
	if err := eng.ReloadPolicies(context.Background()); err != nil {
		t.Fatalf("failed to reload policies: %v", err)
	}
	after := len(eng.ListPolicies())

	if initial != after {
		t.Errorf("expected %d policies after reload, got %d", initial, after)
	}
}

func TestListPolicies_HaveRequiredFields(t *testing.T) {
	eng := newTestEngine(t)

	for _, p := range eng.ListPolicies() {
		if p.Name == "" {
			t.Error("policy has empty name")
		}
		if p.Rego == "" {
			t.Error("policy has empty Rego code")
		}
	}
}
