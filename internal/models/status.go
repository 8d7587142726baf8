package models

type ExecutorStatusType string

const (
	ExecutorStatusIdle    ExecutorStatusType = "idle"
	ExecutorStatusRunning ExecutorStatusType = "running"
)

// WorkerStatus is the last known state of one pool worker.
type WorkerStatus struct {
	ID    string
	State string
}

type ExecutorStatus struct {
	State    ExecutorStatusType
	RunID    string
	Queued   int
	Complete int
	Failed   int
	Live     int
	Locked   bool
	Workers  []WorkerStatus
}
