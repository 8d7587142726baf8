package services_test

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tupyy/taskpool/internal/config"
	"github.com/tupyy/taskpool/internal/metrics"
	"github.com/tupyy/taskpool/internal/models"
	"github.com/tupyy/taskpool/internal/services"
	"github.com/tupyy/taskpool/internal/store"
	srvErrors "github.com/tupyy/taskpool/pkg/errors"
	"github.com/tupyy/taskpool/pkg/pool"
)

var _ = Describe("Executor", func() {
	var (
		ctx context.Context
		cfg config.Pool
		m   *metrics.Metrics
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = config.NewConfiguration().Pool
		cfg.Workers = 2
		cfg.Timeout = 50 * time.Millisecond
		cfg.Workspace = GinkgoT().TempDir()
		m = metrics.NewMetrics(prometheus.NewRegistry())
	})

	Context("without store", func() {
		// Given a list of commands with comments and blank lines
		// When the executor runs it
		// Then only the commands should be executed
		It("should run every command line", func() {
			input := "# setup\necho one\n\necho two\nexit 4\n"
			e := services.NewExecutor(cfg, nil, m, nil)

			exec, err := e.Execute(ctx, strings.NewReader(input))

			Expect(err).NotTo(HaveOccurred())
			Expect(exec.Run.State).To(Equal(models.RunStateCompleted))
			Expect(exec.Run.Queued).To(Equal(3))
			Expect(exec.Run.Complete).To(Equal(3))
			Expect(exec.Report.Complete).To(Equal(3))
			Expect(exec.Records).To(HaveLen(3))

			codes := map[string]int{}
			for i, r := range exec.Records {
				Expect(r.Seq).To(Equal(i + 1))
				Expect(r.RunID).To(Equal(exec.Run.ID))
				codes[r.Command] = r.ExitCode
			}
			Expect(codes).To(Equal(map[string]int{"echo one": 0, "echo two": 0, "exit 4": 4}))

			Expect(testutil.ToFloat64(m.TasksSubmitted)).To(Equal(3.0))
			Expect(testutil.ToFloat64(m.TasksCompleted.WithLabelValues("success"))).To(Equal(2.0))
			Expect(testutil.ToFloat64(m.TasksCompleted.WithLabelValues("exit_error"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(m.Runs.WithLabelValues("completed"))).To(Equal(1.0))
		})

		It("should not retain records when results are not stored", func() {
			cfg.StoreResults = false
			e := services.NewExecutor(cfg, nil, m, nil)

			exec, err := e.Execute(ctx, strings.NewReader("true\ntrue\n"))

			Expect(err).NotTo(HaveOccurred())
			Expect(exec.Run.Complete).To(Equal(2))
			Expect(exec.Records).To(BeEmpty())
		})

		It("should run commands while they are streamed", func() {
			cfg.Stream = true
			e := services.NewExecutor(cfg, nil, m, nil)

			pr, pw := io.Pipe()
			done := make(chan *services.Execution, 1)
			go func() {
				defer GinkgoRecover()
				exec, err := e.Execute(ctx, pr)
				Expect(err).NotTo(HaveOccurred())
				done <- exec
			}()

			_, err := io.WriteString(pw, "echo first\n")
			Expect(err).NotTo(HaveOccurred())
			Eventually(func() int { return e.Status().Complete }, 2*time.Second).Should(Equal(1))
			Expect(e.Status().State).To(Equal(models.ExecutorStatusRunning))
			Expect(e.Status().Locked).To(BeFalse())

			_, err = io.WriteString(pw, "echo second\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(pw.Close()).To(Succeed())

			var exec *services.Execution
			Eventually(done, 5*time.Second).Should(Receive(&exec))
			Expect(exec.Run.Stream).To(BeTrue())
			Expect(exec.Run.Complete).To(Equal(2))
			Expect(e.Status().State).To(Equal(models.ExecutorStatusIdle))
		})

		It("should reject a second run while one is active", func() {
			cfg.Stream = true
			e := services.NewExecutor(cfg, nil, m, nil)

			pr, pw := io.Pipe()
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				_, _ = e.Execute(ctx, pr)
			}()
			Eventually(func() models.ExecutorStatusType { return e.Status().State }, time.Second).
				Should(Equal(models.ExecutorStatusRunning))

			_, err := e.Execute(ctx, strings.NewReader("true\n"))
			Expect(srvErrors.IsRunInProgressError(err)).To(BeTrue())

			Expect(pw.Close()).To(Succeed())
			Eventually(done, 5*time.Second).Should(BeClosed())
		})

		It("should mark the run cancelled when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			e := services.NewExecutor(cfg, nil, m, nil)

			go func() {
				time.Sleep(100 * time.Millisecond)
				cancel()
			}()
			exec, err := e.Execute(cctx, strings.NewReader("sleep 5\nsleep 5\n"))

			Expect(err).To(MatchError(context.Canceled))
			Expect(exec.Run.State).To(Equal(models.RunStateCancelled))
		})

		It("should report worker status while running", func() {
			cfg.Stream = true
			e := services.NewExecutor(cfg, nil, m, nil)
			Expect(e.Status().State).To(Equal(models.ExecutorStatusIdle))

			pr, pw := io.Pipe()
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				_, _ = e.Execute(ctx, pr)
			}()

			Eventually(func() int { return len(e.Status().Workers) }, time.Second).Should(Equal(2))
			status := e.Status()
			Expect(status.RunID).NotTo(BeEmpty())
			for _, w := range status.Workers {
				Expect(w.State).To(BeElementOf(pool.WorkerIdle.String(), pool.WorkerRunning.String()))
			}
			Expect(testutil.ToFloat64(m.LiveWorkers)).To(BeNumerically("==", e.Status().Live))

			Expect(pw.Close()).To(Succeed())
			Eventually(done, 5*time.Second).Should(BeClosed())
			Expect(testutil.ToFloat64(m.LiveWorkers)).To(BeZero())
		})
	})

	Context("with store", func() {
		var (
			db *sql.DB
			s  *store.Store
		)

		BeforeEach(func() {
			var err error
			db, err = store.NewDB(":memory:")
			Expect(err).NotTo(HaveOccurred())
			s = store.NewStore(db)
			Expect(s.Migrate(ctx)).To(Succeed())
		})

		AfterEach(func() {
			if db != nil {
				db.Close()
			}
		})

		// Given a store
		// When a run finishes
		// Then the run row and every result should be persisted
		It("should persist the run and its results", func() {
			e := services.NewExecutor(cfg, s, m, nil)

			exec, err := e.Execute(ctx, strings.NewReader("echo a\necho b\necho c\n"))
			Expect(err).NotTo(HaveOccurred())

			run, err := s.Runs().Get(ctx, exec.Run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.State).To(Equal(models.RunStateCompleted))
			Expect(run.Complete).To(Equal(3))
			Expect(run.FinishedAt).NotTo(BeNil())

			records, err := s.Results().List(ctx, store.ByRun(exec.Run.ID), store.WithDefaultSort())
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0].Seq).To(Equal(1))
			Expect(records[2].Seq).To(Equal(3))
		})
	})
})
