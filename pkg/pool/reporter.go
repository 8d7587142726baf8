package pool

import "time"

// Header describes a run at start up.
type Header struct {
	Queued    int
	Streaming bool
	Workers   int
	CPUs      int
}

// Progress is the state rendered on the live progress line.
type Progress struct {
	Complete int
	Total    int
	Elapsed  time.Duration
}

// Rate returns the throughput in tasks per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Complete) / p.Elapsed.Seconds()
}

// ETA estimates the remaining time from the current throughput.
func (p Progress) ETA() time.Duration {
	rate := p.Rate()
	if rate == 0 || p.Total <= p.Complete {
		return 0
	}
	return time.Duration(float64(p.Total-p.Complete) / rate * float64(time.Second))
}

// Reporter renders the observable output of a run.
type Reporter interface {
	Header(h Header)
	Event(e Event)
	Progress(p Progress)
	Finish()
}

type discardReporter struct{}

func (discardReporter) Header(Header)     {}
func (discardReporter) Event(Event)       {}
func (discardReporter) Progress(Progress) {}
func (discardReporter) Finish()           {}
