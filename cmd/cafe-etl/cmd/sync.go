package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
)

var syncTarget string

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the fact tables into a local SQLite file",
	Long: `Copy every fact table from the configured store into a SQLite file.

Each table in the target is replaced with the source's contents. Tables
that were never built in the source are left untouched.

Example:
  cafe-etl sync --to ./data/cafe.db`,
	Run: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncTarget, "to", "", "SQLite file to copy into (required)")

	syncCmd.MarkFlagRequired("to")
}

func runSync(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"store", "databaseUrl"})
	ctx := cmd.Context()

	src, err := db.Open(cfg.Store.DatabaseURL)
	exitOnError(err, "failed to open fact store")
	defer src.Close()

	exitOnError(newPathResolver(cfg).EnsureParentDir(syncTarget), "failed to prepare target")
	dst, err := db.Open(syncTarget)
	exitOnError(err, "failed to open target")
	defer dst.Close()

	if dst.Dialect() != "sqlite" {
		exitOnError(fmt.Errorf("target %s is not a SQLite file", dst.Target()), "invalid target")
	}

	slog.Info("Starting sync", "from", src.Target(), "to", dst.Target())

	results, err := db.Copy(ctx, src, dst, model.Schemas())
	exitOnError(err, "sync failed")

	fmt.Println("\n=== Sync Summary ===")
	for _, r := range results {
		if r.Skipped {
			fmt.Printf("  %-22s skipped (not in source)\n", r.Table)
			continue
		}
		fmt.Printf("  %-22s %6d rows\n", r.Table, r.Rows)
	}
	fmt.Println()

	slog.Info("Sync completed", "tables", len(results))
}
