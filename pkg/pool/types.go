package pool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("pool already started")
	ErrNoLiveWorkers  = errors.New("all workers stopped with tasks outstanding")
	ErrTaskFailed     = errors.New("task failed")
)

// Level is the severity of an Event.
type Level int

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelProgress
)

var levelNames = []string{"VERBOSE", "DEBUG", "INFO", "WARNING", "ERROR", "PROGRESS"}

func (l Level) String() string {
	if l < LevelVerbose || l > LevelProgress {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// Allows reports whether an event of level e passes the threshold l.
func (l Level) Allows(e Level) bool {
	return l <= e
}

// ParseLevel accepts a level name (case insensitive) or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(LevelVerbose) {
			return 0, fmt.Errorf("invalid verbosity level: %s", s)
		}
		// anything above PROGRESS silences every event
		return Level(n), nil
	}
	for i, name := range levelNames {
		if strings.EqualFold(name, s) {
			return Level(i), nil
		}
	}
	if strings.EqualFold(s, "warn") {
		return LevelWarning, nil
	}
	return 0, fmt.Errorf("invalid verbosity level: %s", s)
}

// Event is a diagnostic message emitted by a worker.
type Event struct {
	Worker  string
	Level   Level
	Message string
	Err     error
	Time    time.Time
}

// Result is the record produced by one completed task.
type Result[A, V any] struct {
	Worker string
	Args   A
	Value  V
}

// WorkerContext is the private state of one worker, handed to every task
// the worker executes.
type WorkerContext struct {
	ID   string
	Data any
}

// Func is the function carried by a Task.
type Func[A, V any] func(ctx context.Context, wc *WorkerContext, args A) (V, error)

// Initializer builds the private state of a worker. It is called once per
// worker, before the worker takes its first task.
type Initializer func(ctx context.Context) (any, error)

// Task pairs a function with its arguments. A Task without function is a
// no-op: it is counted like any other task but yields no Result.
type Task[A, V any] struct {
	Args A
	Fn   Func[A, V]
}

func NewTask[A, V any](args A, fn Func[A, V]) Task[A, V] {
	return Task[A, V]{Args: args, Fn: fn}
}

// Invoke runs the task on behalf of the worker described by wc.
// Errors returned by the function are passed through unchanged.
func (t Task[A, V]) Invoke(ctx context.Context, wc *WorkerContext) (*Result[A, V], error) {
	if t.Fn == nil {
		return nil, nil
	}
	v, err := t.Fn(ctx, wc, t.Args)
	if err != nil {
		return nil, err
	}
	return &Result[A, V]{Worker: wc.ID, Args: t.Args, Value: v}, nil
}

func (Task[A, V]) isMessage() {}

// message is what travels on the input queue: either a Task or the
// shutdown signal.
type message interface {
	isMessage()
}

type shutdown struct{}

func (shutdown) isMessage() {}

type completionKind int

const (
	completionResult completionKind = iota
	completionNoop
	completionFailed
	completionExited
)

// completion is what travels on the output queue.
type completion[A, V any] struct {
	kind   completionKind
	worker string
	result *Result[A, V]
	err    error
}

// TaskError reports a task whose function failed and the worker it killed.
type TaskError struct {
	Worker string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("worker %s: %v", e.Worker, e.Err)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskFailed, e.Err}
}

// WorkerState is the lifecycle state of a worker.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
	WorkerFailed
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	case WorkerFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats is a point in time snapshot of the pool counters.
type Stats struct {
	Queued   int
	Complete int
	Failed   int
	Locked   bool
	Live     int
	Workers  map[string]WorkerState
}

// Report summarizes a finished run.
type Report struct {
	Queued   int
	Complete int
	Failed   int
	Workers  int
	Started  time.Time
	Finished time.Time
}

func (r Report) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Outcome is delivered once through the Future returned by Start.
type Outcome struct {
	Report *Report
	Err    error
}

type Future[T any] struct {
	input  chan T
	cancel context.CancelFunc
}

func NewFuture[T any](input chan T, cancel context.CancelFunc) *Future[T] {
	f := &Future[T]{
		input:  input,
		cancel: cancel,
	}

	return f
}

func (f *Future[T]) C() chan T {
	return f.input
}

func (f *Future[T]) Stop() {
	f.cancel()
}
