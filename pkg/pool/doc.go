// Package pool implements a fixed-size parallel task pool.
//
// A controller distributes tasks over N workers, collects their results and
// diagnostic events and reports progress until every submitted task has been
// accounted for.
//
// # Architecture Overview
//
//	 Submit(task)   Lock()
//	      │            │
//	      ▼            ▼
//	┌──────────────────────────────────────────┐
//	│ input   [task] [task] ... [stop] x N     │
//	└─────────────────────┬────────────────────┘
//	                      │ Get(timeout)
//	      ┌───────────────┼───────────────┐
//	      ▼               ▼               ▼
//	┌──────────┐    ┌──────────┐    ┌──────────┐
//	│ worker-1 │    │ worker-2 │    │ worker-N │
//	└──┬────┬──┘    └──┬────┬──┘    └──┬────┬──┘
//	   │    │          │    │          │    │
//	   │    └──────────┼────┴──────────┼────┴──────► events
//	   ▼               ▼               ▼                │
//	┌──────────────────────────────────────────┐        │
//	│ output  [result] [result] [failure] ...  │        │
//	└─────────────────────┬────────────────────┘        │
//	                      ▼                             │
//	           ┌─────────────────────┐                  │
//	           │ controller (run())  │ ◄────────────────┘
//	           └──────────┬──────────┘
//	                      ├──► callback, Results()
//	                      └──► Reporter (header, events, progress)
//
// # Queues
//
// All three conduits are unbounded FIFOs. Put never blocks, Get waits at
// most the configured timeout. The input queue carries a sealed union of
// Task values and the shutdown signal, so the two can never be confused.
// Exactly one shutdown signal per worker is enqueued by Lock.
//
// # Worker Lifecycle
//
//	          start                 task
//	┌────────┐ ───► ┌────────┐ ───────────────► ┌─────────┐
//	│  init  │      │  Idle  │ ◄─────────────── │ Running │
//	└───┬────┘      └───┬────┘     success      └────┬────┘
//	    │ init error    │ shutdown                   │ error / panic
//	    ▼               ▼                            ▼
//	┌────────┐      ┌─────────┐                 ┌────────┐
//	│ Failed │      │ Stopped │                 │ Failed │
//	└────────┘      └─────────┘                 └────────┘
//
// A worker emits INFO "Starting" when it enters its loop, WARNING "Timeout"
// whenever the input wait elapses (it never exits on timeout alone) and INFO
// "Stopping" when it consumes its shutdown signal. A task error is fatal to
// the worker that ran it: the worker emits ERROR and exits. Failed workers
// are never restarted.
//
// # Controller
//
// The controller runs once, on its own goroutine (Start) so the caller can
// keep submitting in streaming mode:
//
//	if !stream { Lock() }
//	start workers, print header
//	for !(locked && complete+failed == queued) {
//	    select result with timeout
//	    result   → complete++, callback, retain, events, progress
//	    failure  → failed++, record TaskError
//	    timeout  → events only
//	}
//
// In non-streaming mode every task must be submitted before Run. In
// streaming mode the caller calls Lock after the last Submit.
//
// # Failures
//
// A failed task never produces a result. Instead of waiting forever for it,
// the controller counts it as failed and Run returns an error matching
// ErrTaskFailed once every other task is done. When no worker is left
// alive while tasks are outstanding Run returns ErrNoLiveWorkers at once.
//
// # Usage Example
//
//	p := pool.New[int, int](pool.WithWorkers[int, int](4))
//	for i := range 10 {
//	    p.Submit(pool.NewTask(i, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
//	        return n * 2, nil
//	    }))
//	}
//	report, err := p.Run(ctx)
//	for _, r := range p.Results() {
//	    fmt.Println(r.Worker, r.Args, r.Value)
//	}
package pool
