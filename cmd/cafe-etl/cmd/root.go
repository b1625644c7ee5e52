// Package cmd provides CLI commands for cafe-etl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/config"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/pathutil"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cafe-etl",
	Short: "Build the café financial fact tables from uploaded spreadsheets",
	Long: `cafe-etl is a CLI tool that turns the café's point-of-sale exports
and expense ledger into a financial fact model.

It supports:
- Classifying expenses into CAPEX, pre-operation and operating costs
- Splitting sales tax and mapping menu sections to categories
- Rebuilding only the tables whose source changed
- Copying the fact tables into a local SQLite file
- Printing the predefined KPI reports

Example:
  cafe-etl run
  cafe-etl run --sales --unit-costs
  cafe-etl report --from 2025-10-01`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reportCmd)
}

func setupLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// loadConfig loads the configuration and checks the given required keys.
// DEBUG=true in the environment enables debug logging like --debug.
func loadConfig(required ...[]string) *config.Config {
	slog.Info("Loading configuration")

	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if cfg.Debug && !debug {
		setupLogger(true)
	}

	if err := cfg.Validate(required...); err != nil {
		exitOnError(err, "invalid configuration")
	}
	return cfg
}

// loadRules returns the default rules, or the YAML override when configured.
func loadRules(cfg *config.Config) *rules.Rules {
	if cfg.RulesFile == "" {
		return rules.Default()
	}

	slog.Debug("Loading rules", "path", cfg.RulesFile)
	r, err := rules.Load(cfg.RulesFile)
	exitOnError(err, "failed to load rules")
	return r
}

func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		UploadsDir:   cfg.Sources.UploadsDir,
		ExpensesFile: cfg.Sources.ExpensesFile,
		SalesFile:    cfg.Sources.SalesFile,
		UnitCostFile: cfg.Sources.UnitCostFile,
	})
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
