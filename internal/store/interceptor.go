package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// QueryInterceptor is the subset of *sql.DB used by the stores.
type QueryInterceptor interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type loggingInterceptor struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func newLoggingInterceptor(db *sql.DB) *loggingInterceptor {
	return &loggingInterceptor{db: db, logger: zap.S().Named("store")}
}

func (l *loggingInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer l.trace("query_row", query, time.Now())
	return l.db.QueryRowContext(ctx, query, args...)
}

func (l *loggingInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer l.trace("query", query, time.Now())
	return l.db.QueryContext(ctx, query, args...)
}

func (l *loggingInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer l.trace("exec", query, time.Now())
	return l.db.ExecContext(ctx, query, args...)
}

func (l *loggingInterceptor) trace(op, query string, start time.Time) {
	l.logger.Debugw("sql", "op", op, "query", query, "duration", time.Since(start))
}
