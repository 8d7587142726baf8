package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const initializerMaxTries = 3

type worker[A, V any] struct {
	id          string
	in          *queue[message]
	out         *queue[completion[A, V]]
	events      *queue[Event]
	timeout     time.Duration
	initializer Initializer
	state       atomic.Int32
	wg          *sync.WaitGroup
}

func newWorker[A, V any](id string, p *Pool[A, V]) *worker[A, V] {
	return &worker[A, V]{
		id:          id,
		in:          p.input,
		out:         p.output,
		events:      p.events,
		timeout:     p.opts.Timeout,
		initializer: p.opts.Initializer,
		wg:          &p.wg,
	}
}

func (w *worker[A, V]) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *worker[A, V]) setState(s WorkerState) {
	w.state.Store(int32(s))
}

func (w *worker[A, V]) log(level Level, msg string, err error) {
	w.events.Put(Event{
		Worker:  w.id,
		Level:   level,
		Message: msg,
		Err:     err,
		Time:    time.Now(),
	})
}

// initialize builds the worker context, retrying the initializer with
// exponential backoff.
func (w *worker[A, V]) initialize(ctx context.Context) (*WorkerContext, error) {
	wc := &WorkerContext{ID: w.id}
	if w.initializer == nil {
		return wc, nil
	}

	data, err := backoff.Retry(ctx, func() (any, error) {
		return w.initializer(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(initializerMaxTries))
	if err != nil {
		return nil, fmt.Errorf("worker initializer: %w", err)
	}
	wc.Data = data
	return wc, nil
}

// Run is the worker main loop. It returns when the worker receives the
// shutdown signal, when a task fails or when ctx is cancelled.
func (w *worker[A, V]) Run(ctx context.Context) {
	defer w.wg.Done()

	wc, err := w.initialize(ctx)
	if err != nil {
		w.setState(WorkerFailed)
		w.log(LevelError, err.Error(), err)
		w.out.Put(completion[A, V]{kind: completionExited, worker: w.id, err: err})
		return
	}

	w.log(LevelInfo, "Starting", nil)
	for {
		msg, ok, err := w.in.Get(ctx, w.timeout)
		if err != nil {
			w.setState(WorkerStopped)
			return
		}
		if !ok {
			w.log(LevelWarning, "Timeout", nil)
			continue
		}

		switch m := msg.(type) {
		case shutdown:
			w.log(LevelInfo, "Stopping", nil)
			w.in.Done()
			w.setState(WorkerStopped)
			w.out.Put(completion[A, V]{kind: completionExited, worker: w.id})
			return
		case Task[A, V]:
			w.setState(WorkerRunning)
			result, err := w.execute(ctx, wc, m)
			w.in.Done()
			if err != nil {
				w.setState(WorkerFailed)
				w.log(LevelError, err.Error(), err)
				w.out.Put(completion[A, V]{kind: completionFailed, worker: w.id, err: err})
				return
			}
			if result == nil {
				w.out.Put(completion[A, V]{kind: completionNoop, worker: w.id})
			} else {
				w.out.Put(completion[A, V]{kind: completionResult, worker: w.id, result: result})
			}
			w.setState(WorkerIdle)
		default:
			zap.S().Named("pool").Warnw("unexpected message on input queue", "worker", w.id, "type", fmt.Sprintf("%T", msg))
			w.in.Done()
		}
	}
}

// execute invokes the task, turning a panic into an error.
func (w *worker[A, V]) execute(ctx context.Context, wc *WorkerContext, t Task[A, V]) (result *Result[A, V], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("worker panicked: %v", rec)
		}
	}()

	return t.Invoke(ctx, wc)
}
