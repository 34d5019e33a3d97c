package executor

import (
	"context"
	"time"

	"github.com/xmute-dev/xmute/pkg/budget"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// Bounded estimates each step's peak memory before running it and fails
// fast with ExecuteError{Kind: MemoryLimitExceeded} rather than ever
// blocking, per spec §4.5. The permit's lifetime spans exactly one step.
type Bounded struct {
	Registry *registry.Registry
	Budget   *budget.MemoryBudget
	Retry    RetryPolicy
}

// NewBounded constructs a Bounded executor over reg, accounting against b,
// with retries disabled. Set Retry after construction to enable them.
func NewBounded(reg *registry.Registry, b *budget.MemoryBudget) *Bounded {
	return &Bounded{Registry: reg, Budget: b, Retry: NoRetry}
}

func (e *Bounded) Execute(ctx context.Context, cancel *Cancel, job Job) (*ExecutionResult, error) {
	start := time.Now()
	var peak int64

	outputs := make(map[stepOutputKey]stepOutput)
	cur := carrier{bytes: job.Input, props: job.Properties}

	for i, step := range job.Plan.Steps {
		if cancel != nil && cancel.Fired() {
			return nil, newCancelledErr()
		}

		estimate := budget.EstimateStep(int64(len(cur.bytes)), step.ConverterID)
		permit, ok := e.Budget.TryReserve(estimate)
		if !ok {
			return nil, newMemoryLimitErr(step.ConverterID, estimate, e.Budget.Limit())
		}
		if estimate > peak {
			peak = estimate
		}

		var next carrier
		err := withRetry(ctx, e.Retry, func() error {
			var stepErr error
			next, stepErr = runSingleStep(ctx, e.Registry, step, i, cur, job.AggregateInputs, outputs)
			return stepErr
		})
		permit.Release()
		if err != nil {
			return nil, err
		}
		cur = next
	}

	return &ExecutionResult{
		Output:      cur.bytes,
		OutputList:  itemBytes(cur),
		Properties:  cur.props,
		Cardinality: job.Plan.FinalCardinality,
		Stats: ExecutionStats{
			Duration:      time.Since(start),
			PeakMemory:    peak,
			StepsExecuted: len(job.Plan.Steps),
		},
	}, nil
}

func (e *Bounded) ExecuteBatch(ctx context.Context, cancel *Cancel, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		if cancel != nil && cancel.Fired() {
			for j := i; j < len(jobs); j++ {
				results[j] = JobResult{Err: newCancelledErr()}
			}
			return results
		}
		res, err := e.Execute(ctx, cancel, job)
		results[i] = JobResult{Result: res, Err: err}
	}
	return results
}
