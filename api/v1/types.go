package v1

import "time"

type WorkerStatus struct {
	Id    string `json:"id"`
	State string `json:"state"`
}

// ExecutorStatus is the body of GET /status.
type ExecutorStatus struct {
	State    string         `json:"state"`
	RunId    *string        `json:"runId,omitempty"`
	Queued   int            `json:"queued"`
	Complete int            `json:"complete"`
	Failed   int            `json:"failed"`
	Live     int            `json:"live"`
	Locked   bool           `json:"locked"`
	Workers  []WorkerStatus `json:"workers"`
}

type Run struct {
	Id         string     `json:"id"`
	State      string     `json:"state"`
	Queued     int        `json:"queued"`
	Complete   int        `json:"complete"`
	Failed     int        `json:"failed"`
	Workers    int        `json:"workers"`
	Stream     bool       `json:"stream"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      *string    `json:"error,omitempty"`
}

type Result struct {
	Seq        int     `json:"seq"`
	Worker     string  `json:"worker"`
	Command    string  `json:"command"`
	ExitCode   int     `json:"exitCode"`
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	DurationMs float64 `json:"durationMs"`
}

type ResultListResponse struct {
	Page      int      `json:"page"`
	PageCount int      `json:"pageCount"`
	Total     int      `json:"total"`
	Results   []Result `json:"results"`
}

type GetRunResultsParams struct {
	Page     *int `form:"page"`
	PageSize *int `form:"pageSize"`
	// Failed keeps the commands with a non-zero exit status only.
	Failed *bool `form:"failed"`
}

type Error struct {
	Error string `json:"error"`
}
