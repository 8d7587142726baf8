package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tupyy/taskpool/internal/config"
)

func NewRootCommand() *cobra.Command {
	defaults := config.NewConfiguration()

	root := &cobra.Command{
		Use:          "taskpool",
		Short:        "Run shell commands in parallel on a fixed pool of workers",
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Configuration file (any format read by viper)")
	config.RegisterLogFlags(root.PersistentFlags(), defaults)

	root.AddCommand(
		newRunCommand(),
		newResultsCommand(),
		newRunsCommand(),
	)

	return root
}

// loadConfiguration resolves the configuration of cmd and installs the
// global logger.
func loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(viper.New(), cmd.Flags(), configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	zap.S().Debugw("configuration loaded", "config", cfg.DebugMap())

	return cfg, nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zcfg.Level = lvl
	zcfg.DisableStacktrace = true

	return zcfg.Build()
}
