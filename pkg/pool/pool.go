package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Pool distributes tasks over a fixed set of workers and collects their
// results and events on a controller goroutine.
type Pool[A, V any] struct {
	opts    Options[A, V]
	input   *queue[message]
	output  *queue[completion[A, V]]
	events  *queue[Event]
	workers []*worker[A, V]
	wg      sync.WaitGroup
	started atomic.Bool

	// submission side
	mu     sync.Mutex
	queued int
	locked bool

	// written by the controller goroutine only
	complete atomic.Int64
	failed   atomic.Int64
	live     atomic.Int64

	resultsMu sync.Mutex
	results   []Result[A, V]
}

func New[A, V any](opts ...Option[A, V]) *Pool[A, V] {
	o := defaultOptions[A, V]()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[A, V]{
		opts:   o,
		input:  newQueue[message](),
		output: newQueue[completion[A, V]](),
		events: newQueue[Event](),
	}
	for i := range o.Workers {
		p.workers = append(p.workers, newWorker(fmt.Sprintf("worker-%d", i+1), p))
	}
	return p
}

// Submit enqueues a task. It returns false, without enqueuing anything,
// once the pool is locked.
func (p *Pool[A, V]) Submit(t Task[A, V]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locked {
		return false
	}
	p.input.Put(t)
	p.queued++
	return true
}

// Lock enqueues one shutdown signal per worker and rejects every further
// submission. Calling Lock more than once has no effect.
func (p *Pool[A, V]) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locked {
		return
	}
	for range p.opts.Workers {
		p.input.Put(shutdown{})
	}
	p.locked = true
}

func (p *Pool[A, V]) submission() (queued int, locked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queued, p.locked
}

// seal rejects further submissions without sending shutdown signals.
func (p *Pool[A, V]) seal() {
	p.mu.Lock()
	p.locked = true
	p.mu.Unlock()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[A, V]) Stats() Stats {
	queued, locked := p.submission()
	states := make(map[string]WorkerState, len(p.workers))
	for _, w := range p.workers {
		states[w.id] = w.State()
	}
	return Stats{
		Queued:   queued,
		Complete: int(p.complete.Load()),
		Failed:   int(p.failed.Load()),
		Locked:   locked,
		Live:     int(p.live.Load()),
		Workers:  states,
	}
}

// Results returns the retained results in arrival order.
func (p *Pool[A, V]) Results() []Result[A, V] {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	results := make([]Result[A, V], len(p.results))
	copy(results, p.results)
	return results
}

// Start runs the controller loop on its own goroutine. The returned future
// yields exactly one Outcome. Stopping the future cancels the run.
func (p *Pool[A, V]) Start(ctx context.Context) *Future[Outcome] {
	c := make(chan Outcome, 1)
	if !p.started.CompareAndSwap(false, true) {
		c <- Outcome{Err: ErrAlreadyStarted}
		return NewFuture(c, func() {})
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		report, err := p.run(ctx)
		c <- Outcome{Report: report, Err: err}
	}()

	return NewFuture(c, cancel)
}

// Run starts the pool and blocks until it finishes.
func (p *Pool[A, V]) Run(ctx context.Context) (*Report, error) {
	outcome := <-p.Start(ctx).C()
	return outcome.Report, outcome.Err
}

func (p *Pool[A, V]) run(ctx context.Context) (*Report, error) {
	log := zap.S().Named("pool")

	if !p.opts.Stream {
		p.Lock()
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	report := &Report{Workers: len(p.workers), Started: time.Now()}
	p.live.Store(int64(len(p.workers)))
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.Run(workerCtx)
	}

	queued, _ := p.submission()
	if p.opts.Verbosity.Allows(LevelInfo) {
		p.opts.Reporter.Header(Header{
			Queued:    queued,
			Streaming: p.opts.Stream,
			Workers:   len(p.workers),
			CPUs:      runtime.NumCPU(),
		})
	}
	log.Debugw("pool started", "queued", queued, "stream", p.opts.Stream, "workers", len(p.workers))

	var (
		complete, failed int
		live             = len(p.workers)
		errs             []error
		progress         = p.opts.Verbosity.Allows(LevelProgress)
	)

	finish := func(err error) (*Report, error) {
		p.seal()
		if err != nil {
			cancelWorkers()
		}
		// live workers still hold a shutdown signal each
		p.wg.Wait()
		p.input.Drain()
		p.input.Join()
		p.drainEvents()
		if progress {
			p.opts.Reporter.Finish()
		}

		report.Queued, _ = p.submission()
		report.Complete = complete
		report.Failed = failed
		report.Finished = time.Now()
		log.Debugw("pool finished", "queued", report.Queued, "complete", complete, "failed", failed, "elapsed", report.Elapsed())

		if err != nil {
			return report, err
		}
		return report, errors.Join(errs...)
	}

	for {
		queued, locked := p.submission()
		if locked && complete+failed == queued {
			return finish(nil)
		}
		if live == 0 {
			return finish(errors.Join(append([]error{ErrNoLiveWorkers}, errs...)...))
		}

		c, ok, err := p.output.Get(ctx, p.opts.Timeout)
		if err != nil {
			return finish(err)
		}
		if !ok {
			log.Debugw("no result within timeout", "timeout", p.opts.Timeout, "complete", complete, "queued", queued)
			p.drainEvents()
			continue
		}
		p.output.Done()

		switch c.kind {
		case completionResult:
			complete++
			p.complete.Store(int64(complete))
			if p.opts.Callback != nil {
				p.opts.Callback(*c.result)
			}
			if p.opts.StoreResults {
				p.resultsMu.Lock()
				p.results = append(p.results, *c.result)
				p.resultsMu.Unlock()
			}
		case completionNoop:
			complete++
			p.complete.Store(int64(complete))
		case completionFailed:
			failed++
			live--
			p.failed.Store(int64(failed))
			p.live.Store(int64(live))
			errs = append(errs, &TaskError{Worker: c.worker, Err: c.err})
		case completionExited:
			live--
			p.live.Store(int64(live))
			if c.err != nil {
				errs = append(errs, fmt.Errorf("worker %s: %w", c.worker, c.err))
			}
			continue
		}

		p.drainEvents()
		if progress {
			queued, _ := p.submission()
			p.opts.Reporter.Progress(Progress{
				Complete: complete,
				Total:    queued,
				Elapsed:  time.Since(report.Started),
			})
		}
	}
}

// drainEvents hands every pending event that passes the verbosity threshold
// to the reporter and mirrors it to the logger.
func (p *Pool[A, V]) drainEvents() {
	log := zap.L().Named("pool")
	for _, e := range p.events.Drain() {
		if !p.opts.Verbosity.Allows(e.Level) {
			continue
		}
		if ce := log.Check(zapLevel(e.Level), e.Message); ce != nil {
			ce.Write(zap.String("worker", e.Worker), zap.Stringer("level", e.Level), zap.Error(e.Err))
		}
		p.opts.Reporter.Event(e)
	}
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelInfo, LevelProgress:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
