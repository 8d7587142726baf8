// Package handlers implements the HTTP API layer of taskpool.
//
// Handlers delegate to the executor and the store and only deal with
// parameter parsing, error mapping and model-to-API conversion.
//
// # Endpoints
//
//	┌────────┬─────────────────────────┬──────────────────────────────────┐
//	│ Method │ Path (under /api/v1)    │ Description                      │
//	├────────┼─────────────────────────┼──────────────────────────────────┤
//	│ GET    │ /status                 │ Live counters of the current run │
//	│ GET    │ /runs                   │ Latest runs, newest first        │
//	│ GET    │ /runs/{id}              │ One run                          │
//	│ GET    │ /runs/{id}/results      │ Paginated results of a run       │
//	└────────┴─────────────────────────┴──────────────────────────────────┘
//
// # Pagination
//
// /runs/{id}/results accepts page (default 1) and pageSize (default 20,
// capped at 100). failed=true keeps non-zero exit codes only. The response
// carries page, pageCount and total.
//
// # Error Mapping
//
//	ResourceNotFoundError  → 404
//	store not configured   → 503
//	anything else          → 500, logged on the "run_handler" logger
package handlers
