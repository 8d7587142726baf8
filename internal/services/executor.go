package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tupyy/taskpool/internal/config"
	"github.com/tupyy/taskpool/internal/metrics"
	"github.com/tupyy/taskpool/internal/models"
	"github.com/tupyy/taskpool/internal/store"
	"github.com/tupyy/taskpool/internal/tasks"
	srvErrors "github.com/tupyy/taskpool/pkg/errors"
	"github.com/tupyy/taskpool/pkg/pool"
)

type commandPool = pool.Pool[string, tasks.CommandOutput]

// Execution is the outcome of Executor.Execute.
type Execution struct {
	Run    models.Run
	Report *pool.Report
	// Records holds every result in arrival order. It is empty when the pool
	// does not retain results.
	Records []models.Record
}

// Executor runs shell lines through a pool, one run at a time.
type Executor struct {
	cfg      config.Pool
	store    *store.Store
	metrics  *metrics.Metrics
	reporter pool.Reporter

	mu      sync.Mutex
	current *models.Run
	pool    *commandPool
}

// NewExecutor creates an executor. st may be nil, in which case nothing is
// persisted. reporter may be nil.
func NewExecutor(cfg config.Pool, st *store.Store, m *metrics.Metrics, reporter pool.Reporter) *Executor {
	return &Executor{
		cfg:      cfg,
		store:    st,
		metrics:  m,
		reporter: reporter,
	}
}

// Execute reads one shell command per line from r and runs them. Blank lines
// and lines starting with '#' are skipped. In streaming mode the workers
// start before the first line is read.
func (e *Executor) Execute(ctx context.Context, r io.Reader) (*Execution, error) {
	log := zap.S().Named("executor")

	root, cleanup, err := e.workspace()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	run := models.NewRun(workers, e.cfg.Stream)

	var (
		seq     int
		persist = e.persister(ctx, run.ID)
	)
	opts := []pool.Option[string, tasks.CommandOutput]{
		pool.WithWorkers[string, tasks.CommandOutput](workers),
		pool.WithTimeout[string, tasks.CommandOutput](e.cfg.Timeout),
		pool.WithVerbosity[string, tasks.CommandOutput](e.cfg.VerbosityLevel()),
		pool.WithStream[string, tasks.CommandOutput](e.cfg.Stream),
		pool.WithStoreResults[string, tasks.CommandOutput](e.cfg.StoreResults),
		pool.WithInitializer[string, tasks.CommandOutput](tasks.WorkspaceInitializer(root)),
		pool.WithCallback(func(res pool.Result[string, tasks.CommandOutput]) {
			seq++
			e.metrics.ObserveCompletion(res.Value.ExitCode, res.Value.Duration.Seconds())
			persist(newRecord(run.ID, seq, res))
		}),
	}
	if e.reporter != nil {
		opts = append(opts, pool.WithReporter[string, tasks.CommandOutput](e.reporter))
	}
	p := pool.New(opts...)

	if err := e.begin(ctx, &run, p); err != nil {
		return nil, err
	}
	defer e.end()

	log.Infow("run started", "run_id", run.ID, "workers", workers, "stream", e.cfg.Stream)

	var (
		report *pool.Report
		runErr error
	)
	if e.cfg.Stream {
		future := p.Start(ctx)
		readErr := e.submit(p, r)
		p.Lock()
		outcome := <-future.C()
		report, runErr = outcome.Report, errors.Join(outcome.Err, readErr)
	} else {
		runErr = e.submit(p, r)
		if runErr == nil {
			report, runErr = p.Run(ctx)
		}
	}

	e.finish(&run, p, runErr)
	log.Infow("run finished", "run_id", run.ID, "state", run.State, "complete", run.Complete, "failed", run.Failed, "elapsed", run.Elapsed())

	exec := &Execution{Run: run, Report: report, Records: records(run.ID, p.Results())}
	return exec, runErr
}

// Status returns the state of the run in progress, or Idle.
func (e *Executor) Status() models.ExecutorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return models.ExecutorStatus{State: models.ExecutorStatusIdle}
	}

	stats := e.pool.Stats()
	status := models.ExecutorStatus{
		State:    models.ExecutorStatusRunning,
		RunID:    e.current.ID,
		Queued:   stats.Queued,
		Complete: stats.Complete,
		Failed:   stats.Failed,
		Live:     stats.Live,
		Locked:   stats.Locked,
		Workers:  make([]models.WorkerStatus, 0, len(stats.Workers)),
	}
	for id, state := range stats.Workers {
		status.Workers = append(status.Workers, models.WorkerStatus{ID: id, State: state.String()})
	}
	return status
}

func (e *Executor) begin(ctx context.Context, run *models.Run, p *commandPool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		return srvErrors.NewRunInProgressError(e.current.ID)
	}

	if e.store != nil {
		if err := e.store.Runs().Create(ctx, *run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
	}

	e.current = run
	e.pool = p
	e.metrics.TrackLiveWorkers(func() int { return p.Stats().Live })
	e.metrics.QueuedTasks.Set(0)
	return nil
}

func (e *Executor) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
	e.pool = nil
	e.metrics.TrackLiveWorkers(nil)
}

// finish copies the final counters into run and persists it.
func (e *Executor) finish(run *models.Run, p *commandPool, err error) {
	stats := p.Stats()
	finished := time.Now().UTC()

	run.Queued = stats.Queued
	run.Complete = stats.Complete
	run.Failed = stats.Failed
	run.FinishedAt = &finished

	switch {
	case err == nil:
		run.State = models.RunStateCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.State = models.RunStateCancelled
		run.Error = err.Error()
	default:
		run.State = models.RunStateFailed
		run.Error = err.Error()
	}

	e.metrics.TasksFailed.Add(float64(stats.Failed))
	e.metrics.Runs.WithLabelValues(string(run.State)).Inc()

	if e.store == nil {
		return
	}
	// the run context may already be cancelled
	if uerr := e.store.Runs().Update(context.Background(), *run); uerr != nil {
		zap.S().Named("executor").Errorw("failed to update run", "run_id", run.ID, "error", uerr)
	}
}

// submit reads r line by line and submits every command.
func (e *Executor) submit(p *commandPool, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !p.Submit(tasks.NewCommand(line)) {
			return fmt.Errorf("pool stopped accepting tasks")
		}
		e.metrics.TasksSubmitted.Inc()
		e.metrics.QueuedTasks.Inc()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	return nil
}

// persister returns the function storing one record. Storage errors are
// logged and do not stop the run.
func (e *Executor) persister(ctx context.Context, runID string) func(models.Record) {
	if e.store == nil {
		return func(models.Record) {}
	}
	log := zap.S().Named("executor")
	return func(r models.Record) {
		if err := e.store.Results().Insert(context.WithoutCancel(ctx), r); err != nil {
			log.Errorw("failed to persist result", "run_id", runID, "seq", r.Seq, "error", err)
		}
	}
}

// workspace returns the parent of the worker directories. A temporary one is
// created, and removed by cleanup, when none is configured.
func (e *Executor) workspace() (string, func(), error) {
	if e.cfg.Workspace != "" {
		return e.cfg.Workspace, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "taskpool-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func newRecord(runID string, seq int, res pool.Result[string, tasks.CommandOutput]) models.Record {
	return models.Record{
		RunID:     runID,
		Seq:       seq,
		Worker:    res.Worker,
		Command:   res.Value.Command,
		ExitCode:  res.Value.ExitCode,
		Stdout:    res.Value.Stdout,
		Stderr:    res.Value.Stderr,
		Duration:  res.Value.Duration,
		CreatedAt: time.Now().UTC(),
	}
}

func records(runID string, results []pool.Result[string, tasks.CommandOutput]) []models.Record {
	out := make([]models.Record, 0, len(results))
	for i, res := range results {
		out = append(out, newRecord(runID, i+1, res))
	}
	return out
}
