package budget

import "github.com/xmute-dev/xmute/pkg/graph"

// domainFactor is the per-step multiplicative memory factor, keyed by the
// leading namespace segment of a converter id (e.g. "audio.decode-mp3" ->
// "audio"). Unrecognised namespaces use defaultFactor.
var domainFactor = map[string]float64{
	"audio": 10,
	"image": 4,
	"video": 100,
	"serde": 1,
}

const defaultFactor = 1

// Estimate applies the per-step multiplicative heuristic from spec §4.4 to
// predict peak memory for running plan against an input of inputSize bytes.
// It is a heuristic, not a guarantee — the executor records actual peak
// memory in ExecutionStats regardless of this prediction.
func Estimate(inputSize int64, plan *graph.Plan) int64 {
	if plan == nil || len(plan.Steps) == 0 {
		return inputSize
	}
	var peak int64
	running := inputSize
	for _, step := range plan.Steps {
		running = int64(float64(running) * factorFor(step.ConverterID))
		if running > peak {
			peak = running
		}
	}
	return peak
}

// EstimateStep applies the heuristic to a single step, used by the bounded
// executor, which reserves memory per-step rather than for a whole plan.
func EstimateStep(inputSize int64, converterID string) int64 {
	return int64(float64(inputSize) * factorFor(converterID))
}

func factorFor(converterID string) float64 {
	for ns, factor := range domainFactor {
		if hasNamespace(converterID, ns) {
			return factor
		}
	}
	return defaultFactor
}

func hasNamespace(id, ns string) bool {
	return len(id) > len(ns) && id[:len(ns)] == ns && id[len(ns)] == '.'
}
