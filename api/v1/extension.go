package v1

import (
	"github.com/tupyy/taskpool/internal/models"
)

func (s *ExecutorStatus) FromModel(m models.ExecutorStatus) {
	s.State = string(m.State)
	if m.RunID != "" {
		id := m.RunID
		s.RunId = &id
	}
	s.Queued = m.Queued
	s.Complete = m.Complete
	s.Failed = m.Failed
	s.Live = m.Live
	s.Locked = m.Locked
	s.Workers = make([]WorkerStatus, 0, len(m.Workers))
	for _, w := range m.Workers {
		s.Workers = append(s.Workers, WorkerStatus{Id: w.ID, State: w.State})
	}
}

// NewRunFromModel converts a models.Run to an API Run.
func NewRunFromModel(r models.Run) Run {
	run := Run{
		Id:         r.ID,
		State:      string(r.State),
		Queued:     r.Queued,
		Complete:   r.Complete,
		Failed:     r.Failed,
		Workers:    r.Workers,
		Stream:     r.Stream,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Error != "" {
		run.Error = &r.Error
	}
	return run
}

// NewResultFromModel converts a models.Record to an API Result.
func NewResultFromModel(r models.Record) Result {
	return Result{
		Seq:        r.Seq,
		Worker:     r.Worker,
		Command:    r.Command,
		ExitCode:   r.ExitCode,
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
	}
}
