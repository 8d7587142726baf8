package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TASKPOOL"

// flag name -> configuration key
var flagKeys = map[string]string{
	"workers":       "pool.workers",
	"timeout":       "pool.timeout",
	"verbosity":     "pool.verbosity",
	"stream":        "pool.stream",
	"store-results": "pool.storeresults",
	"workspace":     "pool.workspace",
	"db":            "store.path",
	"http-port":     "server.httpport",
	"export":        "export.path",
	"log-format":    "logformat",
	"log-level":     "loglevel",
}

// RegisterFlags adds the pool flags to fs, using the values of cfg as
// defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Configuration) {
	fs.IntP("workers", "j", cfg.Pool.Workers, "Number of parallel workers (0: one per CPU)")
	fs.Duration("timeout", cfg.Pool.Timeout, "Bounded wait on every queue receive")
	fs.StringP("verbosity", "v", cfg.Pool.Verbosity, "Minimum event level printed: verbose, debug, info, warning, error, progress")
	fs.Bool("stream", cfg.Pool.Stream, "Start workers before every task is read")
	fs.Bool("store-results", cfg.Pool.StoreResults, "Retain every result in memory until the run ends")
	fs.String("workspace", cfg.Pool.Workspace, "Parent directory of the per-worker scratch directories")
	fs.String("db", cfg.Store.Path, "DuckDB file where runs and results are persisted")
	fs.Int("http-port", cfg.Server.HTTPPort, "Port of the status API (0: disabled)")
	fs.String("export", cfg.Export.Path, "Write the results to this xlsx file")
}

// RegisterStoreFlags adds the flags needed to read persisted runs.
func RegisterStoreFlags(fs *pflag.FlagSet, cfg *Configuration) {
	fs.String("db", cfg.Store.Path, "DuckDB file where runs and results are persisted")
}

func RegisterLogFlags(fs *pflag.FlagSet, cfg *Configuration) {
	fs.String("log-format", cfg.LogFormat, "Log format: console or json")
	fs.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
}

// Load builds the configuration from, by increasing priority, defaults,
// the optional config file, TASKPOOL_* environment variables and flags.
func Load(v *viper.Viper, fs *pflag.FlagSet, configFile string) (*Configuration, error) {
	cfg := NewConfiguration()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
