// Package executor runs a graph.Plan against concrete bytes: sequential,
// bounded (memory fail-fast), and parallel (batch, backpressure) variants
// sharing one contract, plus the cardinality orchestrator that fans
// converter calls out across list carriers.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// Cancel is a cooperative cancellation token, checked between steps and
// between jobs (spec §5). Firing it does not abort an in-flight converter
// call; the current call runs to completion.
type Cancel struct {
	ch   chan struct{}
	once sync.Once
}

// NewCancel constructs an unfired Cancel token.
func NewCancel() *Cancel { return &Cancel{ch: make(chan struct{})} }

// Fire signals cancellation. Safe to call more than once or concurrently.
func (c *Cancel) Fire() { c.once.Do(func() { close(c.ch) }) }

// Done returns a channel closed once Fire has been called.
func (c *Cancel) Done() <-chan struct{} { return c.ch }

// Fired reports whether the token has already fired.
func (c *Cancel) Fired() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Job is an executable unit: a Plan, the input bytes, and the starting
// Properties. AggregateInputs is populated only for a plan whose first step
// binds a list input port to the job's initial source (N→1 aggregation);
// for the common scalar case it is left nil and Input/Properties are used.
type Job struct {
	Plan            *graph.Plan
	Input           []byte
	Properties      graph.Properties
	AggregateInputs []convert.Item
}

// ExecutionStats reports how a job's execution went.
type ExecutionStats struct {
	Duration      time.Duration
	PeakMemory    int64
	StepsExecuted int
}

// ExecutionResult is the outcome of running a single job: output bytes (or,
// for a final list-cardinality output, multiple), the final Properties, and
// stats.
type ExecutionResult struct {
	Output      []byte
	OutputList  [][]byte
	Properties  graph.Properties
	Cardinality graph.Cardinality
	Stats       ExecutionStats
}

// JobResult is one batch entry's outcome. ExecuteBatch returns it at the
// same slice position as its job, so partial failure is reported without
// losing input order.
type JobResult struct {
	Result *ExecutionResult
	Err    error
}

// Executor runs Plans. All three variants (sequential, bounded, parallel)
// implement the same contract; callers pick a variant for its resource
// policy, not its semantics.
type Executor interface {
	// Execute runs one job to completion.
	Execute(ctx context.Context, cancel *Cancel, job Job) (*ExecutionResult, error)

	// ExecuteBatch runs each job, tolerating partial failure: the returned
	// slice always has len(jobs) entries, in input order, one per job.
	ExecuteBatch(ctx context.Context, cancel *Cancel, jobs []Job) []JobResult
}

// stepOutputKey identifies one (step, port) output slot in the per-job
// output table.
type stepOutputKey struct {
	step int
	port string
}

// stepOutput holds one port's recorded output, preserving whether it was a
// list so a later step binding to it gets the right PortValue shape.
type stepOutput struct {
	single convert.Item
	list   []convert.Item
	isList bool
}

// carrier tracks the current (bytes, Properties) flowing between steps, plus
// whatever the most recent list-producing step emitted, so the caller can
// populate ExecutionResult.OutputList when the plan's final output is itself
// a list (1→N expansion with no further steps to consume it).
type carrier struct {
	bytes    []byte
	props    graph.Properties
	list     []convert.Item
	isList   bool
}

// runSteps executes plan's steps in order against a registry, honouring
// cancellation between steps. Used by the sequential variant (the bounded
// and parallel variants call runSingleStep directly so they can interleave
// memory reservation, and for parallel converter-serialisation, around each
// call).
func runSteps(ctx context.Context, reg *registry.Registry, cancel *Cancel, job Job) (carrier, int, error) {
	outputs := make(map[stepOutputKey]stepOutput)
	cur := carrier{bytes: job.Input, props: job.Properties}

	for i, step := range job.Plan.Steps {
		if cancel != nil && cancel.Fired() {
			return cur, i, convert.NewCancelled("execution cancelled before step " + step.ConverterID)
		}
		select {
		case <-ctx.Done():
			return cur, i, convert.NewCancelled("context cancelled before step " + step.ConverterID)
		default:
		}

		next, err := runSingleStep(ctx, reg, step, i, cur, job.AggregateInputs, outputs)
		if err != nil {
			return cur, i, err
		}
		cur = next
	}

	return cur, len(job.Plan.Steps), nil
}

// runSingleStep runs one PlanStep against reg, gathering inputs from
// stepIndex's port bindings (either the job's initial carrier/aggregate
// items, or an earlier step's recorded output) and recording this step's
// outputs back into outputs for later steps to reference.
func runSingleStep(ctx context.Context, reg *registry.Registry, step graph.PlanStep, stepIndex int, cur carrier, aggregateInputs []convert.Item, outputs map[stepOutputKey]stepOutput) (carrier, error) {
	c, ok := reg.Lookup(step.ConverterID)
	if !ok {
		return cur, convert.NewInternal("plan references unknown converter", nil).WithConverterID(step.ConverterID)
	}
	decl := c.Decl()

	in := convert.Inputs{}
	for portName, binding := range step.Inputs {
		port, hasPort := decl.Inputs[portName]
		wantsList := hasPort && port.List

		switch binding.Kind {
		case graph.SourceInitial:
			if wantsList && len(aggregateInputs) > 0 {
				in[portName] = convert.Batch(aggregateInputs)
			} else {
				in[portName] = convert.Single(convert.Item{Bytes: cur.bytes, Properties: cur.props})
			}
		case graph.SourceStep:
			so, ok := outputs[stepOutputKey{step: binding.StepIndex, port: binding.Port}]
			if !ok {
				return cur, convert.NewInternal("port binding references a step that did not produce the named port", nil).
					WithConverterID(step.ConverterID).WithPort(portName)
			}
			if so.isList {
				in[portName] = convert.Batch(so.list)
			} else {
				in[portName] = convert.Single(so.single)
			}
		}
	}

	out, err := c.Convert(ctx, in, step.Options)
	if err != nil {
		return cur, err
	}

	next := carrier{bytes: cur.bytes, props: cur.props}
	havePrimary := false
	for portName, pv := range out {
		if pv.List {
			outputs[stepOutputKey{step: stepIndex, port: portName}] = stepOutput{list: pv.Items, isList: true}
			if !havePrimary {
				next.list = pv.Items
				next.isList = true
				if len(pv.Items) > 0 {
					next.bytes = pv.Items[0].Bytes
					next.props = pv.Items[0].Properties
				}
				havePrimary = true
			}
		} else {
			outputs[stepOutputKey{step: stepIndex, port: portName}] = stepOutput{single: pv.Item}
			if !havePrimary {
				next.bytes = pv.Item.Bytes
				next.props = pv.Item.Properties
				next.isList = false
				havePrimary = true
			}
		}
	}
	return next, nil
}
