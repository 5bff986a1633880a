package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/iocache"
	"github.com/huangsam/coverwatch/internal/reportportal"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// historyManager owns the run history store; Execute closes it.
var historyManager = iocache.NewHistoryStoreManager()

// logger is the diagnostic logger built from --log-level and --quiet.
var logger = logrus.New()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "coverwatch",
	Short: "Track test coverage history, regressions and quality gates.",
	Long: `Coverwatch reads coverage history snapshots and current coverage measurements
to classify trends, detect regressions and gate builds on per-component thresholds.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("COVERWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("days", contract.DefaultLookbackDays)
	viper.SetDefault("reports-dir", ".")
	viper.SetDefault("coverage-dir", ".")
	viper.SetDefault("history-pattern", contract.DefaultHistoryPattern)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("color", "yes")
	viper.SetDefault("source", string(schema.FilesSource))
	viper.SetDefault("history-backend", string(schema.NoneBackend))
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("min-runs", contract.DefaultMinRuns)
	viper.SetDefault("limit", contract.DefaultFlakyLimit)
	viper.SetDefault("addr", contract.DefaultServeAddr)
}

// setConfigFile points Viper at --config or the default .coverwatch file.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".coverwatch") // Name of config file (without extension)
	viper.SetConfigType("yaml")        // We'll use YAML format
	viper.AddConfigPath(".")           // Look in the current directory
	viper.AddConfigPath("$HOME")       // Look in the home directory
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the history store.
func sharedSetup(_ context.Context, cmd *cobra.Command, _ []string) error {
	// 0. Flags like --save exist on several commands; bind the running command's copy.
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return contract.WithExitCode(contract.ExitError, fmt.Errorf("unable to bind flags: %w", err))
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return contract.WithExitCode(contract.ExitError, fmt.Errorf("unable to unmarshal config: %w", err))
	}

	// 3. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input, time.Now()); err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}

	// 4. Diagnostics go to stderr so stdout stays clean for reports and MCP.
	l, err := contract.NewLogger(cfg.LogLevel, cfg.Quiet, os.Stderr)
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	logger = l

	// 5. Initialize persistence layer with validated config
	if err := historyManager.InitStores(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to initialize persistence: %w", err))
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// newAnalyzer builds the analyzer for the validated config.
func newAnalyzer() *core.Analyzer {
	return core.NewAnalyzer(cfg, logger, historyManager, reportportal.NewSources(cfg, logger))
}

// Execute runs the root command and releases the history store afterwards.
func Execute() error {
	defer historyManager.CloseStores()
	return rootCmd.Execute()
}
