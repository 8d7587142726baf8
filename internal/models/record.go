package models

import "time"

// Record is the persisted outcome of one command.
type Record struct {
	RunID     string
	Seq       int
	Worker    string
	Command   string
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	CreatedAt time.Time
}

func (r Record) Succeeded() bool {
	return r.ExitCode == 0
}
