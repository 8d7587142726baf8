package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/tupyy/taskpool/api/v1"
	"github.com/tupyy/taskpool/internal/config"
	"github.com/tupyy/taskpool/internal/export"
	"github.com/tupyy/taskpool/internal/handlers"
	"github.com/tupyy/taskpool/internal/metrics"
	"github.com/tupyy/taskpool/internal/progress"
	"github.com/tupyy/taskpool/internal/server"
	"github.com/tupyy/taskpool/internal/services"
	"github.com/tupyy/taskpool/internal/store"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Run every line of FILE, or of stdin, as a shell command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open task file: %w", err)
				}
				defer f.Close()
				in = f
			}

			return run(cmd.Context(), cfg, in, cmd.OutOrStdout())
		},
	}
	config.RegisterFlags(cmd.Flags(), config.NewConfiguration())

	return cmd
}

func run(ctx context.Context, cfg *config.Configuration, in io.Reader, out io.Writer) error {
	log := zap.S().Named("run")

	st, err := openStore(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	registry := metrics.NewRegistry()
	executor := services.NewExecutor(cfg.Pool, st, metrics.NewMetrics(registry), progress.NewTerminal(out))

	if cfg.Server.HTTPPort > 0 {
		srv, err := server.NewServer(cfg.Server, registry, func(router *gin.RouterGroup) {
			v1.RegisterHandlers(router, handlers.New(executor, st))
		})
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Errorw("http server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
	}

	exec, runErr := executor.Execute(ctx, in)
	if exec == nil {
		return runErr
	}

	fmt.Fprintf(out, "run %s %s: %d complete, %d failed, %d queued in %s\n",
		exec.Run.ID, exec.Run.State, exec.Run.Complete, exec.Run.Failed, exec.Run.Queued,
		exec.Run.Elapsed().Round(time.Millisecond))

	if cfg.Export.Path != "" {
		if err := exportRecords(ctx, cfg.Export.Path, exec, st); err != nil {
			return errors.Join(runErr, err)
		}
		log.Infow("results exported", "path", cfg.Export.Path)
	}

	return runErr
}

// exportRecords prefers the in-memory records and falls back to the store
// when results were not retained.
func exportRecords(ctx context.Context, path string, exec *services.Execution, st *store.Store) error {
	records := exec.Records
	if len(records) == 0 && st != nil {
		var err error
		records, err = st.Results().List(context.WithoutCancel(ctx), store.ByRun(exec.Run.ID), store.WithDefaultSort())
		if err != nil {
			return fmt.Errorf("failed to read results: %w", err)
		}
	}
	return export.WriteXLSX(path, records)
}

func openStore(ctx context.Context, path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}

	db, err := store.NewDB(path)
	if err != nil {
		return nil, err
	}

	st := store.NewStore(db)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}
