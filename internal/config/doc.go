// Package config defines the configuration of the taskpool command.
//
// Values are resolved by increasing priority: struct defaults (creasty/defaults),
// an optional config file, TASKPOOL_* environment variables and command line
// flags. Viper performs the merge; the flag set is bound key by key.
//
// # Configuration Structure
//
//	Configuration
//	├── Pool       - Worker pool settings
//	├── Store      - DuckDB persistence
//	├── Server     - Status API
//	├── Export     - Spreadsheet export
//	├── LogFormat  - Logging format
//	└── LogLevel   - Logging verbosity
//
// # Pool Configuration
//
//	┌──────────────┬─────────┬──────────────┬──────────────────────────────────┐
//	│ Field        │ Default │ Flag         │ Description                      │
//	├──────────────┼─────────┼──────────────┼──────────────────────────────────┤
//	│ Workers      │ 0       │ -j/--workers │ Parallel workers, 0 = NumCPU     │
//	│ Timeout      │ 20s     │ --timeout    │ Bounded wait on queue receives   │
//	│ Verbosity    │ "info"  │ -v           │ Minimum event level printed      │
//	│ Stream       │ false   │ --stream     │ Run tasks while they are read    │
//	│ StoreResults │ true    │ --store-...  │ Keep results in memory           │
//	│ Workspace    │ ""      │ --workspace  │ Parent of worker scratch dirs    │
//	└──────────────┴─────────┴──────────────┴──────────────────────────────────┘
//
// # Other Sections
//
//	┌──────────────────┬───────────┬─────────────┬───────────────────────────┐
//	│ Field            │ Default   │ Flag        │ Description               │
//	├──────────────────┼───────────┼─────────────┼───────────────────────────┤
//	│ Store.Path       │ ""        │ --db        │ DuckDB file, "" = off     │
//	│ Server.HTTPPort  │ 0         │ --http-port │ Status API, 0 = off       │
//	│ Export.Path      │ ""        │ --export    │ xlsx output, "" = off     │
//	│ LogFormat        │ "console" │ --log-format│ "console" or "json"       │
//	│ LogLevel         │ "info"    │ --log-level │ zap level                 │
//	└──────────────────┴───────────┴─────────────┴───────────────────────────┘
//
// # Environment
//
// Keys map to environment variables by upper-casing them, replacing dots
// with underscores and adding the TASKPOOL_ prefix:
//
//	pool.workers   -> TASKPOOL_POOL_WORKERS
//	store.path     -> TASKPOOL_STORE_PATH
//	loglevel       -> TASKPOOL_LOGLEVEL
package config
