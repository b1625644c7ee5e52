package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/pathutil"
)

var statsRecent int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display fact store statistics",
	Long: `Display statistics about the fact store and recent loads.

Shows:
- Row count of every fact table
- Number of pipeline runs and the last load timestamp
- The most recent table loads
- Spreadsheets currently in the uploads directory

Example:
  cafe-etl stats
  cafe-etl stats --recent 20`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "Number of recent loads to show")
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"store", "databaseUrl"})
	ctx := cmd.Context()

	conn, err := db.Open(cfg.Store.DatabaseURL)
	exitOnError(err, "failed to open fact store")
	defer conn.Close()
	slog.Debug("Opened fact store", "target", conn.Target())

	history := db.NewLoadHistory(conn)

	stats, err := history.GetStats(ctx)
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Fact Store Statistics ===")
	fmt.Printf("Store: %s (%s)\n\n", conn.Target(), conn.Dialect())
	for _, t := range stats.Tables {
		switch {
		case !t.Exists:
			fmt.Printf("  %-22s (not built)\n", t.Name)
		case t.LastLoad.Valid:
			fmt.Printf("  %-22s %6d rows  loaded %s\n", t.Name, t.Rows, t.LastLoad.String)
		default:
			fmt.Printf("  %-22s %6d rows\n", t.Name, t.Rows)
		}
	}

	fmt.Printf("\nTotal runs: %d\n", stats.Runs)
	if stats.LastLoad.Valid {
		fmt.Printf("Last load:  %s\n", stats.LastLoad.String)
	} else {
		fmt.Printf("Last load:  (never)\n")
	}

	if statsRecent > 0 {
		loads, err := history.RecentLoads(ctx, statsRecent)
		exitOnError(err, "failed to get recent loads")

		if len(loads) > 0 {
			fmt.Println("\n=== Recent Loads ===")
		}
		for _, l := range loads {
			fmt.Printf("  %s  %-22s %6d rows  %s\n", l.LoadedAt.Format("2006-01-02 15:04:05"), l.TableName, l.RowCount, l.SourceFile)
		}
	}

	printUploads(newPathResolver(cfg))

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}

func printUploads(paths *pathutil.PathResolver) {
	fmt.Println("\n=== Uploads ===")
	if !paths.IsDir(paths.GetUploadsDir()) {
		fmt.Printf("  %s (not found)\n", paths.GetUploadsDir())
		return
	}

	sources := []struct {
		name string
		path string
	}{
		{"expenses", paths.GetExpensesPath()},
		{"sales", paths.GetSalesPath()},
		{"unit costs", paths.GetUnitCostPath()},
	}
	for _, src := range sources {
		status := "ok"
		if !paths.FileExists(src.path) {
			status = "missing"
		}
		fmt.Printf("  %-10s %-8s %s\n", src.name, status, src.path)
	}

	files, err := paths.ListUploads()
	if err != nil {
		slog.Warn("Cannot list uploads", "error", err)
		return
	}
	fmt.Printf("  %d spreadsheet(s) in %s\n", len(files), paths.GetUploadsDir())
}
