package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskpool"

// Metrics holds the pool collectors.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksCompleted *prometheus.CounterVec
	TasksFailed    prometheus.Counter
	TaskDuration   prometheus.Histogram
	LiveWorkers    prometheus.GaugeFunc
	QueuedTasks    prometheus.Gauge
	Runs           *prometheus.CounterVec

	live atomic.Pointer[func() int]
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	m := &Metrics{
		TasksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the pool",
		}),
		TasksCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of completed tasks by exit status",
		}, []string{"status"}), // status: success, exit_error
		TasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks whose worker failed",
		}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms to ~164s
		}),
		QueuedTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_tasks",
			Help:      "Number of tasks submitted in the current run",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished runs by final state",
		}, []string{"state"}),
	}
	m.LiveWorkers = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_workers",
		Help:      "Number of workers that have not stopped or failed",
	}, m.liveWorkers)
	return m
}

// TrackLiveWorkers makes the live_workers gauge read fn at scrape time. A
// nil fn reports zero.
func (m *Metrics) TrackLiveWorkers(fn func() int) {
	if fn == nil {
		m.live.Store(nil)
		return
	}
	m.live.Store(&fn)
}

func (m *Metrics) liveWorkers() float64 {
	if fn := m.live.Load(); fn != nil {
		return float64((*fn)())
	}
	return 0
}

func (m *Metrics) ObserveCompletion(exitCode int, seconds float64) {
	status := "success"
	if exitCode != 0 {
		status = "exit_error"
	}
	m.TasksCompleted.WithLabelValues(status).Inc()
	m.TaskDuration.Observe(seconds)
}
