package executor

import (
	"context"
	"runtime"
	"sync"

	"github.com/xmute-dev/xmute/pkg/budget"
	"github.com/xmute-dev/xmute/pkg/registry"
)

// indexedJob carries a job's position so results can be written back into a
// pre-sized slice regardless of completion order.
type indexedJob struct {
	index int
	job   Job
}

// Parallel distributes execute_batch jobs across a fixed-size worker pool,
// reserving memory per job via Budget.ReserveBlocking for backpressure.
// Ported directly from the teacher's
// ParallelScheduler.executeLevelParallel: a closed, pre-filled work channel,
// a fixed worker count, and a WaitGroup join; results are written into a
// pre-sized slice indexed by job position rather than collected in
// completion order, so execute_batch's input-order guarantee holds.
type Parallel struct {
	Registry    *registry.Registry
	Budget      *budget.MemoryBudget
	Parallelism int // 0 means runtime.NumCPU()
	Retry       RetryPolicy

	// serialize holds one mutex per non-thread-safe converter id, built
	// lazily, so the parallel executor never runs two concurrent Convert
	// calls for a converter declared ThreadSafe: false (spec §5).
	serializeMu sync.Mutex
	serialize   map[string]*sync.Mutex
}

// NewParallel constructs a Parallel executor. parallelism <= 0 defaults to
// the logical CPU count.
func NewParallel(reg *registry.Registry, b *budget.MemoryBudget, parallelism int) *Parallel {
	return &Parallel{Registry: reg, Budget: b, Parallelism: parallelism, Retry: NoRetry}
}

func (e *Parallel) workerCount(jobCount int) int {
	n := e.Parallelism
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if jobCount < n {
		n = jobCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Execute runs a single job sequentially; Parallel's concurrency only
// applies across ExecuteBatch's jobs.
func (e *Parallel) Execute(ctx context.Context, cancel *Cancel, job Job) (*ExecutionResult, error) {
	return e.runOne(ctx, cancel, job)
}

func (e *Parallel) ExecuteBatch(ctx context.Context, cancel *Cancel, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workQueue := make(chan indexedJob, len(jobs))
	for i, job := range jobs {
		workQueue <- indexedJob{index: i, job: job}
	}
	close(workQueue)

	var wg sync.WaitGroup
	workers := e.workerCount(len(jobs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range workQueue {
				if cancel != nil && cancel.Fired() {
					results[ij.index] = JobResult{Err: newCancelledErr()}
					continue
				}
				res, err := e.runOne(ctx, cancel, ij.job)
				results[ij.index] = JobResult{Result: res, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}

func (e *Parallel) runOne(ctx context.Context, cancel *Cancel, job Job) (*ExecutionResult, error) {
	outputs := make(map[stepOutputKey]stepOutput)
	cur := carrier{bytes: job.Input, props: job.Properties}
	var peak int64

	for i, step := range job.Plan.Steps {
		if cancel != nil && cancel.Fired() {
			return nil, newCancelledErr()
		}

		estimate := budget.EstimateStep(int64(len(cur.bytes)), step.ConverterID)
		permit, err := e.Budget.ReserveBlocking(estimate, cancel.doneOrNil())
		if err != nil {
			return nil, err
		}
		if estimate > peak {
			peak = estimate
		}

		unlock := e.lockFor(step.ConverterID)

		var next carrier
		stepErr := withRetry(ctx, e.Retry, func() error {
			n, err := runSingleStep(ctx, e.Registry, step, i, cur, job.AggregateInputs, outputs)
			if err != nil {
				return err
			}
			next = n
			return nil
		})

		unlock()
		permit.Release()

		if stepErr != nil {
			return nil, stepErr
		}
		cur = next
	}

	return &ExecutionResult{
		Output:      cur.bytes,
		OutputList:  itemBytes(cur),
		Properties:  cur.props,
		Cardinality: job.Plan.FinalCardinality,
		Stats:       ExecutionStats{PeakMemory: peak, StepsExecuted: len(job.Plan.Steps)},
	}, nil
}

func (c *Cancel) doneOrNil() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.Done()
}

func (e *Parallel) lockFor(converterID string) func() {
	decl, ok := e.Registry.Lookup(converterID)
	if !ok || decl.Decl().ThreadSafe {
		return func() {}
	}
	e.serializeMu.Lock()
	if e.serialize == nil {
		e.serialize = make(map[string]*sync.Mutex)
	}
	m, ok := e.serialize[converterID]
	if !ok {
		m = &sync.Mutex{}
		e.serialize[converterID] = m
	}
	e.serializeMu.Unlock()
	m.Lock()
	return m.Unlock
}
