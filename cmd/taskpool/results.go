package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tupyy/taskpool/internal/config"
	"github.com/tupyy/taskpool/internal/models"
	"github.com/tupyy/taskpool/internal/store"
)

const runsLimit = 20

func newResultsCommand() *cobra.Command {
	var (
		runID  string
		failed bool
		output bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print the persisted results of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			st, err := requireStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			var run *models.Run
			if runID == "" {
				run, err = st.Runs().Latest(ctx)
			} else {
				run, err = st.Runs().Get(ctx, runID)
			}
			if err != nil {
				return err
			}

			opts := []store.ListOption{store.ByRun(run.ID), store.WithDefaultSort()}
			if failed {
				opts = append(opts, store.ByFailed())
			}
			records, err := st.Results().List(ctx, opts...)
			if err != nil {
				return err
			}

			return printResults(cmd.OutOrStdout(), run, records, output)
		},
	}
	config.RegisterStoreFlags(cmd.Flags(), config.NewConfiguration())
	cmd.Flags().StringVar(&runID, "run", "", "Run id (default: latest run)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only show commands with a non-zero exit code")
	cmd.Flags().BoolVar(&output, "output", false, "Print stdout and stderr of every command")

	return cmd
}

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the latest persisted runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			st, err := requireStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.Runs().List(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	config.RegisterStoreFlags(cmd.Flags(), config.NewConfiguration())

	return cmd
}

func requireStore(cmd *cobra.Command, cfg *config.Configuration) (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("--db is required")
	}
	return openStore(cmd.Context(), cfg.Store.Path)
}

func printRuns(out io.Writer, runs []models.Run) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tCOMPLETE\tFAILED\tQUEUED\tWORKERS\tSTARTED\tELAPSED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.State, r.Complete, r.Failed, r.Queued, r.Workers,
			r.StartedAt.Format(time.RFC3339), r.Elapsed().Round(time.Millisecond))
	}
	return w.Flush()
}

func printResults(out io.Writer, run *models.Run, records []models.Record, output bool) error {
	fmt.Fprintf(out, "run %s %s: %d complete, %d failed\n", run.ID, run.State, run.Complete, run.Failed)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tWORKER\tEXIT\tDURATION\tCOMMAND")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.Seq, r.Worker, r.ExitCode, r.Duration.Round(time.Millisecond), r.Command)
		if output {
			for _, line := range outputLines(r) {
				fmt.Fprintf(w, "\t\t\t\t%s\n", line)
			}
		}
	}
	return w.Flush()
}

func outputLines(r models.Record) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(r.Stdout, "\n"), "\n") {
		if l != "" {
			lines = append(lines, "| "+l)
		}
	}
	for _, l := range strings.Split(strings.TrimRight(r.Stderr, "\n"), "\n") {
		if l != "" {
			lines = append(lines, "! "+l)
		}
	}
	return lines
}
