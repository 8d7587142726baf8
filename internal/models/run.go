package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
	RunStateCancelled RunState = "cancelled"
)

func ParseRunState(s string) (RunState, error) {
	switch RunState(s) {
	case RunStateRunning, RunStateCompleted, RunStateFailed, RunStateCancelled:
		return RunState(s), nil
	default:
		return "", fmt.Errorf("invalid run state: %s", s)
	}
}

// Run is one execution of the pool over a task list.
type Run struct {
	ID         string
	State      RunState
	Queued     int
	Complete   int
	Failed     int
	Workers    int
	Stream     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Error      string
}

func NewRun(workers int, stream bool) Run {
	return Run{
		ID:        uuid.NewString(),
		State:     RunStateRunning,
		Workers:   workers,
		Stream:    stream,
		StartedAt: time.Now().UTC(),
	}
}

func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
