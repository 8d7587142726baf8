package pool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tupyy/taskpool/pkg/pool"
)

type recorder struct {
	mu       sync.Mutex
	headers  []pool.Header
	events   []pool.Event
	progress []pool.Progress
	finished int
}

func (r *recorder) Header(h pool.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers = append(r.headers, h)
}

func (r *recorder) Event(e pool.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Progress(p pool.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func (r *recorder) Events() []pool.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pool.Event(nil), r.events...)
}

func (r *recorder) messages(msg string) []pool.Event {
	var out []pool.Event
	for _, e := range r.Events() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

func double(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
	return n * 2, nil
}

func newPool(rec *recorder, opts ...pool.Option[int, int]) *pool.Pool[int, int] {
	base := []pool.Option[int, int]{
		pool.WithTimeout[int, int](50 * time.Millisecond),
		pool.WithVerbosity[int, int](pool.LevelVerbose),
		pool.WithReporter[int, int](rec),
	}
	return pool.New(append(base, opts...)...)
}

var _ = Describe("Pool", func() {
	var (
		ctx context.Context
		rec *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = &recorder{}
	})

	Describe("Run", func() {
		It("should terminate immediately when no task was submitted", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2))

			report, err := p.Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Queued).To(Equal(0))
			Expect(report.Complete).To(Equal(0))
			Expect(p.Stats().Locked).To(BeTrue())
		})

		It("should double ten arguments with four workers", func() {
			p := newPool(rec, pool.WithWorkers[int, int](4))
			for i := range 10 {
				Expect(p.Submit(pool.NewTask(i, double))).To(BeTrue())
			}

			report, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Queued).To(Equal(10))
			Expect(report.Complete).To(Equal(10))

			results := p.Results()
			Expect(results).To(HaveLen(10))
			args := make([]int, 0, len(results))
			for _, r := range results {
				Expect(r.Value).To(Equal(r.Args * 2))
				Expect(r.Worker).To(HavePrefix("worker-"))
				args = append(args, r.Args)
			}
			Expect(args).To(ConsistOf(0, 1, 2, 3, 4, 5, 6, 7, 8, 9))
		})

		It("should count no-op tasks without producing results", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2))
			p.Submit(pool.Task[int, int]{Args: 1})
			p.Submit(pool.NewTask(2, double))

			report, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Complete).To(Equal(2))
			Expect(p.Results()).To(HaveLen(1))
		})

		It("should call the callback once per result and skip retention when disabled", func() {
			var seen []int
			p := newPool(rec,
				pool.WithWorkers[int, int](3),
				pool.WithStoreResults[int, int](false),
				pool.WithCallback(func(r pool.Result[int, int]) {
					seen = append(seen, r.Args)
				}),
			)
			for i := range 20 {
				p.Submit(pool.NewTask(i, double))
			}

			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(20))
			Expect(p.Results()).To(BeEmpty())
		})

		It("should stop every worker gracefully with exactly one shutdown signal each", func() {
			p := newPool(rec, pool.WithWorkers[int, int](3))
			for i := range 5 {
				p.Submit(pool.NewTask(i, double))
			}

			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			stopping := rec.messages("Stopping")
			Expect(stopping).To(HaveLen(3))
			workers := map[string]int{}
			for _, e := range stopping {
				workers[e.Worker]++
			}
			Expect(workers).To(HaveLen(3))
			Expect(rec.messages("Starting")).To(HaveLen(3))

			for _, state := range p.Stats().Workers {
				Expect(state).To(Equal(pool.WorkerStopped))
			}
		})

		It("should render a monotonic progress never above the queued count", func() {
			p := newPool(rec, pool.WithWorkers[int, int](4))
			for i := range 30 {
				p.Submit(pool.NewTask(i, double))
			}

			report, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.progress).To(HaveLen(30))
			last := 0
			for _, pr := range rec.progress {
				Expect(pr.Complete).To(BeNumerically(">=", last))
				Expect(pr.Complete).To(BeNumerically("<=", report.Queued))
				Expect(pr.Total).To(Equal(30))
				last = pr.Complete
			}
			Expect(last).To(Equal(30))
			Expect(rec.finished).To(Equal(1))
		})

		It("should return ErrAlreadyStarted on a second start", func() {
			p := newPool(rec, pool.WithWorkers[int, int](1))
			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Run(ctx)
			Expect(err).To(MatchError(pool.ErrAlreadyStarted))
		})
	})

	Describe("Submit and Lock", func() {
		It("should reject submissions after Lock without touching the queued count", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2))
			Expect(p.Submit(pool.NewTask(1, double))).To(BeTrue())

			p.Lock()

			Expect(p.Submit(pool.NewTask(2, double))).To(BeFalse())
			Expect(p.Stats().Queued).To(Equal(1))
			Expect(p.Stats().Locked).To(BeTrue())
		})

		It("should reject submissions once the run is over", func() {
			p := newPool(rec, pool.WithWorkers[int, int](1), pool.WithStream[int, int](true))
			future := p.Start(ctx)
			p.Lock()

			Eventually(future.C(), 2*time.Second).Should(Receive())
			Expect(p.Submit(pool.NewTask(1, double))).To(BeFalse())
		})
	})

	Describe("Verbosity", func() {
		It("should only report events at or above the threshold", func() {
			p := newPool(rec,
				pool.WithWorkers[int, int](2),
				pool.WithVerbosity[int, int](pool.LevelWarning),
			)
			p.Submit(pool.NewTask(1, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
				return 0, errors.New("boom")
			}))

			_, err := p.Run(ctx)
			Expect(err).To(HaveOccurred())

			events := rec.Events()
			Expect(events).NotTo(BeEmpty())
			for _, e := range events {
				Expect(e.Level).To(BeNumerically(">=", pool.LevelWarning))
			}
			Expect(rec.messages("Starting")).To(BeEmpty())
			Expect(rec.headers).To(BeEmpty())
		})

		It("should mirror reported events to the logger at the matching level", func() {
			core, logs := observer.New(zapcore.InfoLevel)
			restore := zap.ReplaceGlobals(zap.New(core))
			defer restore()

			p := newPool(rec,
				pool.WithWorkers[int, int](2),
				pool.WithVerbosity[int, int](pool.LevelWarning),
			)
			p.Submit(pool.NewTask(1, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
				return 0, errors.New("boom")
			}))

			_, err := p.Run(ctx)
			Expect(err).To(HaveOccurred())

			mirrored := logs.FilterLoggerName("pool")
			Expect(mirrored.Len()).To(Equal(len(rec.Events())))
			Expect(mirrored.FilterMessage("Starting").Len()).To(BeZero())
			for _, entry := range mirrored.All() {
				Expect(entry.Level).To(BeNumerically(">=", zapcore.WarnLevel))
			}
			Expect(mirrored.FilterLevelExact(zapcore.ErrorLevel).Len()).To(BeNumerically(">=", 1))
		})

		It("should print the header only when verbosity allows INFO", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2), pool.WithVerbosity[int, int](pool.LevelInfo))
			p.Submit(pool.NewTask(1, double))

			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.headers).To(HaveLen(1))
			Expect(rec.headers[0].Queued).To(Equal(1))
			Expect(rec.headers[0].Workers).To(Equal(2))
			Expect(rec.headers[0].Streaming).To(BeFalse())
		})

		It("should report nothing above PROGRESS", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2), pool.WithVerbosity[int, int](pool.LevelProgress+1))
			p.Submit(pool.NewTask(1, double))

			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Events()).To(BeEmpty())
			Expect(rec.headers).To(BeEmpty())
			Expect(rec.progress).To(BeEmpty())
			Expect(rec.finished).To(Equal(0))
		})

		It("should emit timeout warnings while a worker waits", func() {
			p := newPool(rec,
				pool.WithWorkers[int, int](1),
				pool.WithStream[int, int](true),
				pool.WithTimeout[int, int](20*time.Millisecond),
			)
			future := p.Start(ctx)

			Eventually(func() int {
				return len(rec.messages("Timeout"))
			}, 2*time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 2))

			p.Lock()
			var outcome pool.Outcome
			Eventually(future.C(), 2*time.Second).Should(Receive(&outcome))
			Expect(outcome.Err).NotTo(HaveOccurred())
			for _, e := range rec.messages("Timeout") {
				Expect(e.Level).To(Equal(pool.LevelWarning))
			}
		})
	})

	Describe("Task failures", func() {
		It("should kill only the failing worker and report the failure", func() {
			p := newPool(rec, pool.WithWorkers[int, int](3))
			for i := range 6 {
				i := i
				p.Submit(pool.NewTask(i, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
					if n == 3 {
						return 0, fmt.Errorf("cannot process %d", n)
					}
					return n * 2, nil
				}))
			}

			report, err := p.Run(ctx)
			Expect(err).To(MatchError(pool.ErrTaskFailed))
			Expect(err.Error()).To(ContainSubstring("cannot process 3"))
			Expect(report.Complete).To(Equal(5))
			Expect(report.Failed).To(Equal(1))
			Expect(p.Results()).To(HaveLen(5))

			errEvents := []pool.Event{}
			for _, e := range rec.Events() {
				if e.Level == pool.LevelError {
					errEvents = append(errEvents, e)
				}
			}
			Expect(errEvents).To(HaveLen(1))
			Expect(errEvents[0].Err).To(MatchError(ContainSubstring("cannot process 3")))

			var taskErr *pool.TaskError
			Expect(errors.As(err, &taskErr)).To(BeTrue())
			Expect(taskErr.Worker).To(Equal(errEvents[0].Worker))
			Expect(p.Stats().Workers[taskErr.Worker]).To(Equal(pool.WorkerFailed))
		})

		It("should treat a panic as a task error", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2))
			p.Submit(pool.NewTask(1, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
				panic("kaboom")
			}))
			p.Submit(pool.NewTask(2, double))

			report, err := p.Run(ctx)
			Expect(err).To(MatchError(pool.ErrTaskFailed))
			Expect(err.Error()).To(ContainSubstring("worker panicked: kaboom"))
			Expect(report.Complete).To(Equal(1))
		})

		It("should return ErrNoLiveWorkers instead of hanging when every worker failed", func() {
			p := newPool(rec, pool.WithWorkers[int, int](1))
			p.Submit(pool.NewTask(1, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
				return 0, errors.New("boom")
			}))
			p.Submit(pool.NewTask(2, double))
			p.Submit(pool.NewTask(3, double))

			future := p.Start(ctx)

			var outcome pool.Outcome
			Eventually(future.C(), 2*time.Second).Should(Receive(&outcome))
			Expect(outcome.Err).To(MatchError(pool.ErrNoLiveWorkers))
			Expect(outcome.Err).To(MatchError(pool.ErrTaskFailed))
			Expect(outcome.Report.Complete).To(Equal(0))
			Expect(outcome.Report.Failed).To(Equal(1))
			Expect(outcome.Report.Queued).To(Equal(3))
		})
	})

	Describe("Worker initializer", func() {
		It("should hand the initializer value to every task of the worker", func() {
			var n atomic.Int32
			p := pool.New(
				pool.WithWorkers[int, string](3),
				pool.WithTimeout[int, string](50*time.Millisecond),
				pool.WithInitializer[int, string](func(ctx context.Context) (any, error) {
					return fmt.Sprintf("state-%d", n.Add(1)), nil
				}),
			)
			for i := range 9 {
				p.Submit(pool.NewTask(i, func(ctx context.Context, wc *pool.WorkerContext, _ int) (string, error) {
					return wc.ID + "/" + wc.Data.(string), nil
				}))
			}

			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Load()).To(Equal(int32(3)))

			byWorker := map[string]string{}
			for _, r := range p.Results() {
				if prev, ok := byWorker[r.Worker]; ok {
					Expect(r.Value).To(Equal(prev))
				}
				byWorker[r.Worker] = r.Value
				Expect(r.Value).To(HavePrefix(r.Worker + "/state-"))
			}
		})

		It("should fail a worker whose initializer keeps failing", func() {
			var calls atomic.Int32
			p := newPool(rec,
				pool.WithWorkers[int, int](1),
				pool.WithInitializer[int, int](func(ctx context.Context) (any, error) {
					calls.Add(1)
					return nil, errors.New("no connection")
				}),
			)
			p.Submit(pool.NewTask(1, double))

			_, err := p.Run(ctx)
			Expect(err).To(MatchError(pool.ErrNoLiveWorkers))
			Expect(err.Error()).To(ContainSubstring("no connection"))
			Expect(calls.Load()).To(Equal(int32(3)))
			Expect(p.Stats().Workers["worker-1"]).To(Equal(pool.WorkerFailed))
		})
	})

	Describe("Streaming", func() {
		It("should account every task submitted while the pool is running", func() {
			p := newPool(rec, pool.WithWorkers[int, int](4), pool.WithStream[int, int](true))
			future := p.Start(ctx)

			go func() {
				defer GinkgoRecover()
				for i := range 50 {
					Expect(p.Submit(pool.NewTask(i, double))).To(BeTrue())
					if i%10 == 0 {
						time.Sleep(5 * time.Millisecond)
					}
				}
				p.Lock()
			}()

			var outcome pool.Outcome
			Eventually(future.C(), 5*time.Second).Should(Receive(&outcome))
			Expect(outcome.Err).NotTo(HaveOccurred())
			Expect(outcome.Report.Queued).To(Equal(50))
			Expect(outcome.Report.Complete).To(Equal(50))

			seen := map[int]int{}
			for _, r := range p.Results() {
				seen[r.Args]++
				Expect(r.Value).To(Equal(r.Args * 2))
			}
			Expect(seen).To(HaveLen(50))
			for _, count := range seen {
				Expect(count).To(Equal(1))
			}
			Expect(rec.headers).To(HaveLen(1))
			Expect(rec.headers[0].Streaming).To(BeTrue())
		})

		It("should keep running until Lock is called", func() {
			p := newPool(rec, pool.WithWorkers[int, int](2), pool.WithStream[int, int](true))
			future := p.Start(ctx)
			p.Submit(pool.NewTask(1, double))

			Eventually(func() int { return p.Stats().Complete }, 2*time.Second).Should(Equal(1))
			Consistently(future.C(), 200*time.Millisecond).ShouldNot(Receive())

			p.Lock()
			Eventually(future.C(), 2*time.Second).Should(Receive())
		})
	})

	Describe("Cancellation", func() {
		It("should stop the run when the future is stopped", func() {
			p := newPool(rec, pool.WithWorkers[int, int](1))
			started := make(chan struct{})
			p.Submit(pool.NewTask(1, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
				close(started)
				<-ctx.Done()
				return 0, nil
			}))

			future := p.Start(ctx)
			Eventually(started, time.Second).Should(BeClosed())
			future.Stop()

			var outcome pool.Outcome
			Eventually(future.C(), 2*time.Second).Should(Receive(&outcome))
			Expect(outcome.Err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("Task", func() {
	It("should yield nothing when it carries no function", func() {
		t := pool.Task[int, int]{Args: 4}
		r, err := t.Invoke(context.Background(), &pool.WorkerContext{ID: "w"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeNil())
	})

	It("should wrap the value with worker and arguments", func() {
		t := pool.NewTask(4, double)
		r, err := t.Invoke(context.Background(), &pool.WorkerContext{ID: "w"})
		Expect(err).NotTo(HaveOccurred())
		Expect(*r).To(Equal(pool.Result[int, int]{Worker: "w", Args: 4, Value: 8}))
	})

	It("should pass errors through", func() {
		boom := errors.New("boom")
		t := pool.NewTask(4, func(ctx context.Context, wc *pool.WorkerContext, n int) (int, error) {
			return 0, boom
		})
		_, err := t.Invoke(context.Background(), &pool.WorkerContext{ID: "w"})
		Expect(err).To(MatchError(boom))
	})
})
