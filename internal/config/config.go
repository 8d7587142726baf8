package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"go.uber.org/zap/zapcore"

	"github.com/tupyy/taskpool/pkg/pool"
)

type Configuration struct {
	Pool      Pool
	Store     Store
	Server    Server
	Export    Export
	LogFormat string `default:"console"`
	LogLevel  string `default:"info"`
}

type Pool struct {
	// Workers is the number of parallel workers. 0 means one per CPU.
	Workers      int           `default:"0"`
	Timeout      time.Duration `default:"20s"`
	Verbosity    string        `default:"info"`
	Stream       bool          `default:"false"`
	StoreResults bool          `default:"true"`
	// Workspace is the parent of the per-worker scratch directories.
	Workspace string `default:""`
}

type Store struct {
	// Path of the DuckDB file. Empty disables persistence.
	Path string `default:""`
}

type Server struct {
	// HTTPPort of the status API. 0 disables the server.
	HTTPPort int `default:"0"`
}

type Export struct {
	// Path of the xlsx file written after the run. Empty disables export.
	Path string `default:""`
}

// NewConfiguration returns a configuration filled with defaults.
func NewConfiguration() *Configuration {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		// defaults are static, this only fails on a malformed tag
		panic(fmt.Errorf("failed to set configuration defaults: %w", err))
	}
	return cfg
}

func (c *Configuration) Validate() error {
	var errs []error

	if c.Pool.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid workers %d: must be >= 0", c.Pool.Workers))
	}
	if c.Pool.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid timeout %s: must be positive", c.Pool.Timeout))
	}
	if _, err := pool.ParseLevel(c.Pool.Verbosity); err != nil {
		errs = append(errs, err)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port %d", c.Server.HTTPPort))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'console' or 'json'", c.LogFormat))
	}

	return errors.Join(errs...)
}

// VerbosityLevel returns the parsed verbosity. Validate must have succeeded.
func (p Pool) VerbosityLevel() pool.Level {
	l, err := pool.ParseLevel(p.Verbosity)
	if err != nil {
		return pool.LevelInfo
	}
	return l
}

// DebugMap returns the configuration as a flat map for structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"pool.workers":       c.Pool.Workers,
		"pool.timeout":       c.Pool.Timeout.String(),
		"pool.verbosity":     c.Pool.Verbosity,
		"pool.stream":        c.Pool.Stream,
		"pool.store_results": c.Pool.StoreResults,
		"pool.workspace":     c.Pool.Workspace,
		"store.path":         c.Store.Path,
		"server.http_port":   c.Server.HTTPPort,
		"export.path":        c.Export.Path,
		"log_format":         c.LogFormat,
		"log_level":          c.LogLevel,
	}
}
