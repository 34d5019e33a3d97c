package executor

import (
	"context"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
)

// Orchestrator sits between caller and Executor, implementing the
// cardinality transformation rules of spec §4.6: a Plan is always executed
// against a single job; the orchestrator is what fans a Many carrier out
// into per-item jobs (auto-map), or collects several items into the list
// input a cardinality-changing plan expects (aggregation), or flattens a
// Many result back into its caller's shape.
type Orchestrator struct {
	Exec Executor
}

// NewOrchestrator wraps exec.
func NewOrchestrator(exec Executor) *Orchestrator {
	return &Orchestrator{Exec: exec}
}

// RunOneToOne executes plan once (1→1). If items carries more than one
// entry — the "current carrier is a list of N items" case — it auto-maps:
// the plan runs once per item, order preserved, via ExecuteBatch so
// per-item failures follow execute_batch's partial-failure policy.
func (o *Orchestrator) RunOneToOne(ctx context.Context, cancel *Cancel, plan *graph.Plan, items []ExecItem) []JobResult {
	jobs := make([]Job, len(items))
	for i, it := range items {
		jobs[i] = Job{Plan: plan, Input: it.Bytes, Properties: it.Properties}
	}
	return o.Exec.ExecuteBatch(ctx, cancel, jobs)
}

// RunAggregating executes plan once over all of items collected into the
// plan's list input port (N→1 aggregation). The plan itself must have been
// produced for a Many→One request; this call supplies the concrete items as
// Job.AggregateInputs, which runSingleStep binds as convert.Batch to
// whichever first step declares a list input port, matching the
// Converter contract's expectation of discrete (bytes, Properties) pairs
// rather than an opaque concatenation.
func (o *Orchestrator) RunAggregating(ctx context.Context, cancel *Cancel, plan *graph.Plan, items []ExecItem) (*ExecutionResult, error) {
	job := Job{
		Plan:            plan,
		Properties:      mergeProperties(items),
		AggregateInputs: toConvertItems(items),
	}
	if len(items) > 0 {
		job.Input = items[0].Bytes
	}
	return o.Exec.Execute(ctx, cancel, job)
}

// RunExpanding executes plan once and flattens its list output into the
// downstream carrier (1→N expansion).
func (o *Orchestrator) RunExpanding(ctx context.Context, cancel *Cancel, plan *graph.Plan, item ExecItem) ([]ExecItem, error) {
	job := Job{Plan: plan, Input: item.Bytes, Properties: item.Properties}
	res, err := o.Exec.Execute(ctx, cancel, job)
	if err != nil {
		return nil, err
	}
	if res.Cardinality != graph.Many || len(res.OutputList) == 0 {
		return []ExecItem{{Bytes: res.Output, Properties: res.Properties}}, nil
	}
	out := make([]ExecItem, len(res.OutputList))
	for i, b := range res.OutputList {
		out[i] = ExecItem{Bytes: b, Properties: res.Properties}
	}
	return out, nil
}

// RunPassthrough executes an N→M plan: the list carrier passes straight
// through to the converter, which reshapes it itself.
func (o *Orchestrator) RunPassthrough(ctx context.Context, cancel *Cancel, plan *graph.Plan, items []ExecItem) (*ExecutionResult, error) {
	return o.RunAggregating(ctx, cancel, plan, items)
}

// ExecItem is a caller-facing (bytes, Properties) pair, mirroring
// convert.Item but kept separate so orchestrator callers don't need to
// import pkg/convert just to build a job.
type ExecItem struct {
	Bytes      []byte
	Properties graph.Properties
}

// mergeProperties folds N items' Properties for an aggregation step: later
// items' keys win on conflict, matching how preserve/override composition
// works for a single converter's own inputs.
func mergeProperties(items []ExecItem) graph.Properties {
	out := graph.Properties{}
	for _, it := range items {
		for k, v := range it.Properties {
			out[k] = v
		}
	}
	return out
}

// toConvertItems converts caller-facing ExecItems into the convert.Item
// slice a list input port binds as convert.Batch.
func toConvertItems(items []ExecItem) []convert.Item {
	out := make([]convert.Item, len(items))
	for i, it := range items {
		out[i] = convert.Item{Bytes: it.Bytes, Properties: it.Properties}
	}
	return out
}
