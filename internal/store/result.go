package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tupyy/taskpool/internal/models"
)

// ResultStore persists the output of every command of a run.
type ResultStore struct {
	db QueryInterceptor
}

func NewResultStore(db QueryInterceptor) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Insert(ctx context.Context, records ...models.Record) error {
	if len(records) == 0 {
		return nil
	}

	builder := sq.Insert("results").Columns(
		"run_id",
		"seq",
		"worker",
		"command",
		"exit_code",
		"stdout",
		"stderr",
		"duration_ns",
		"created_at",
	)
	for _, r := range records {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		builder = builder.Values(
			r.RunID,
			r.Seq,
			r.Worker,
			r.Command,
			r.ExitCode,
			r.Stdout,
			r.Stderr,
			r.Duration.Nanoseconds(),
			createdAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *ResultStore) List(ctx context.Context, opts ...ListOption) ([]models.Record, error) {
	builder := sq.Select(
		"run_id",
		"seq",
		"worker",
		"command",
		"exit_code",
		"stdout",
		"stderr",
		"duration_ns",
		"created_at",
	).From("results")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			r        models.Record
			duration int64
		)
		err := rows.Scan(
			&r.RunID,
			&r.Seq,
			&r.Worker,
			&r.Command,
			&r.ExitCode,
			&r.Stdout,
			&r.Stderr,
			&duration,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		r.Duration = time.Duration(duration)
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}

	return records, rows.Err()
}

// Count ignores pagination and sort options.
func (s *ResultStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From("results")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByRun(runID string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"run_id": runID})
	}
}

func ByWorkers(workers ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(workers) == 0 {
			return b
		}
		return b.Where(sq.Eq{"worker": workers})
	}
}

// ByFailed keeps the commands that exited with a non-zero status.
func ByFailed() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.NotEq{"exit_code": 0})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("run_id", "seq")
	}
}
