package executor

import (
	"context"
	"time"

	"github.com/xmute-dev/xmute/pkg/registry"
)

// Sequential runs a plan's steps in order on the calling goroutine, with no
// memory accounting. Used when the caller already knows memory pressure is
// not a concern (small batches, trusted converters).
type Sequential struct {
	Registry *registry.Registry
}

// NewSequential constructs a Sequential executor over reg.
func NewSequential(reg *registry.Registry) *Sequential {
	return &Sequential{Registry: reg}
}

func (s *Sequential) Execute(ctx context.Context, cancel *Cancel, job Job) (*ExecutionResult, error) {
	start := time.Now()
	cur, steps, err := runSteps(ctx, s.Registry, cancel, job)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{
		Output:      cur.bytes,
		OutputList:  itemBytes(cur),
		Properties:  cur.props,
		Cardinality: job.Plan.FinalCardinality,
		Stats: ExecutionStats{
			Duration:      time.Since(start),
			StepsExecuted: steps,
		},
	}, nil
}

func (s *Sequential) ExecuteBatch(ctx context.Context, cancel *Cancel, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		if cancel != nil && cancel.Fired() {
			for j := i; j < len(jobs); j++ {
				results[j] = JobResult{Err: newCancelledErr()}
			}
			return results
		}
		res, err := s.Execute(ctx, cancel, job)
		results[i] = JobResult{Result: res, Err: err}
	}
	return results
}

// itemBytes extracts a final list carrier's raw bytes, or nil when the
// plan's last output was scalar.
func itemBytes(cur carrier) [][]byte {
	if !cur.isList {
		return nil
	}
	out := make([][]byte, len(cur.list))
	for i, it := range cur.list {
		out[i] = it.Bytes
	}
	return out
}
