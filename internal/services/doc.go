// Package services implements the business logic layer of taskpool.
//
// # Service Dependency Graph
//
//	cmd/taskpool, Handlers
//	    │
//	    ▼
//	Executor ──► pool.Pool, Store (optional), Metrics, Reporter
//
// # Executor
//
// Executor turns a stream of shell lines into a pool run. One run at a time:
// a second Execute while a run is active returns RunInProgressError.
//
// Run lifecycle:
//
//	┌─────────┐    ┌───────────┐
//	│ running │───►│ completed │   every task accounted for, no failure
//	└─────────┘    └───────────┘
//	    │          ┌───────────┐
//	    ├─────────►│  failed   │   a worker failed or the input was unreadable
//	    │          └───────────┘
//	    │          ┌───────────┐
//	    └─────────►│ cancelled │   context cancelled
//	               └───────────┘
//
// Batch mode reads every line, then runs the pool. Streaming mode starts the
// workers first, submits lines as they are read and locks the pool at EOF.
//
// Every result is turned into a models.Record numbered in arrival order,
// observed by the metrics and, when a store is configured, inserted in the
// results table. Storage errors are logged and do not stop the run.
//
// Status reports the live pool counters and the state of every worker for
// the status API.
package services
