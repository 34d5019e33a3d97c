package budget

import (
	"testing"

	"github.com/xmute-dev/xmute/pkg/graph"
)

func TestEstimateStep_FactorsByNamespace(t *testing.T) {
	cases := []struct {
		id       string
		input    int64
		expected int64
	}{
		{"audio.decode-mp3", 100, 1000},
		{"image.resize", 100, 400},
		{"video.encode-mp4", 10, 1000},
		{"serde.json-to-yaml", 100, 100},
		{"unknown.whatever", 100, 100},
	}
	for _, c := range cases {
		if got := EstimateStep(c.input, c.id); got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.id, c.expected, got)
		}
	}
}

func TestEstimate_TracksPeakAcrossSteps(t *testing.T) {
	plan := &graph.Plan{
		Steps: []graph.PlanStep{
			{ConverterID: "video.encode-mp4"},
			{ConverterID: "serde.json-to-yaml"},
		},
	}
	// step1: 10 * 100 = 1000 (peak); step2: 1000 * 1 = 1000.
	if got := Estimate(10, plan); got != 1000 {
		t.Errorf("expected peak 1000, got %d", got)
	}
}

func TestEstimate_EmptyPlanReturnsInputSize(t *testing.T) {
	if got := Estimate(42, &graph.Plan{}); got != 42 {
		t.Errorf("expected empty plan to return input size, got %d", got)
	}
	if got := Estimate(42, nil); got != 42 {
		t.Errorf("expected nil plan to return input size, got %d", got)
	}
}
