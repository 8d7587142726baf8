// Package store implements the data access layer of taskpool.
//
// Runs and command results are persisted in DuckDB so that they can be
// queried after the process exits, served by the status API or exported.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├────────────────────────────────┬────────────────────────────────┤
//	│           RunStore             │          ResultStore           │
//	│              ▼                 │             ▼                  │
//	│            runs                │           results              │
//	├────────────────────────────────┴────────────────────────────────┤
//	│                  QueryInterceptor (debug log)                   │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Tables
//
// Created by the migrations embedded in internal/store/migrations/sql/:
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  runs              │  One row per run: state, counters, times    │
//	│  results           │  One row per command, keyed (run_id, seq)   │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// # Initialization Flow
//
//	db, _ := NewDB(path)       ":memory:" for a private in-memory database
//	s := NewStore(db)          wraps db in the QueryInterceptor
//	s.Migrate(ctx)             applies pending migrations
//
// # RunStore
//
// Methods:
//   - Create(ctx, run) → error
//   - Update(ctx, run) → error (ResourceNotFoundError if the id is unknown)
//   - Get(ctx, id) → *models.Run
//   - Latest(ctx) → *models.Run
//   - List(ctx, limit) → []models.Run, newest first
//
// # ResultStore
//
// Insert builds a multi-row INSERT with squirrel. List and Count take
// ListOption functions that modify a squirrel.SelectBuilder:
//
//	records, err := s.Results().List(ctx,
//	    store.ByRun(runID),
//	    store.ByFailed(),
//	    store.WithDefaultSort(),
//	    store.WithLimit(20),
//	    store.WithOffset(40),
//	)
//
// Filtering Options:
//   - ByRun(id)            WHERE run_id = ?
//   - ByWorkers(ids...)    WHERE worker IN (...)
//   - ByFailed()           WHERE exit_code <> 0
//
// Pagination and sorting:
//   - WithLimit, WithOffset
//   - WithDefaultSort()    ORDER BY run_id, seq
//
// # QueryInterceptor
//
// Every statement goes through a QueryInterceptor that logs the query and
// its duration at debug level on the "store" logger.
package store
