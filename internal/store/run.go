package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tupyy/taskpool/internal/models"
	srvErrors "github.com/tupyy/taskpool/pkg/errors"
)

// RunStore persists one row per pool run.
type RunStore struct {
	db QueryInterceptor
}

func NewRunStore(db QueryInterceptor) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Create(ctx context.Context, run models.Run) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun,
		run.ID,
		string(run.State),
		run.Queued,
		run.Complete,
		run.Failed,
		run.Workers,
		run.Stream,
		run.StartedAt,
		run.Error,
	)
	return err
}

// Update writes the state, counters and end of the run.
func (s *RunStore) Update(ctx context.Context, run models.Run) error {
	var finishedAt any
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}

	res, err := s.db.ExecContext(ctx, queryUpdateRun,
		string(run.State),
		run.Queued,
		run.Complete,
		run.Failed,
		finishedAt,
		run.Error,
		run.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return srvErrors.NewRunNotFoundError(run.ID)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, queryGetRun, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewRunNotFoundError(id)
	}
	return run, err
}

// Latest returns the most recently started run.
func (s *RunStore) Latest(ctx context.Context) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, queryLatestRun))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewResourceNotFoundError("run", "")
	}
	return run, err
}

// List returns at most limit runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]models.Run, error) {
	rows, err := s.db.QueryContext(ctx, queryListRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run        models.Run
		state      string
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&state,
		&run.Queued,
		&run.Complete,
		&run.Failed,
		&run.Workers,
		&run.Stream,
		&run.StartedAt,
		&finishedAt,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	if run.State, err = models.ParseRunState(state); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		run.FinishedAt = &t
	}
	run.StartedAt = run.StartedAt.UTC()
	return &run, nil
}
