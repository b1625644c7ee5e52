package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/pipeline"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/unitcost"
)

var (
	runExpenses    bool
	runSales       bool
	runUnitCosts   bool
	runChangedOnly bool
	runStrict      bool
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the fact tables from the uploaded files",
	Long: `Rebuild the fact tables from the files in the uploads directory.

This command:
1. Reads the expense ledger and classifies every expense
2. Reads the sales workbook and splits sales tax
3. Rebuilds the calendar over the full history
4. Loads unit costs and enriches them with section categories
5. Replaces each table in the fact store and records the load

Without selection flags every group is rebuilt.

Example:
  cafe-etl run
  cafe-etl run --expenses
  cafe-etl run --changed-only`,
	Run: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runExpenses, "expenses", false, "Rebuild the expense table")
	runCmd.Flags().BoolVar(&runSales, "sales", false, "Rebuild the sales, item and section tables")
	runCmd.Flags().BoolVar(&runUnitCosts, "unit-costs", false, "Rebuild the unit-cost table")
	runCmd.Flags().BoolVar(&runChangedOnly, "changed-only", false, "Skip groups whose source file is unchanged")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail on malformed unit-cost input (overrides UNIT_COST_STRICT)")
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"store", "databaseUrl"})
	r := loadRules(cfg)
	paths := newPathResolver(cfg)

	mode := unitcost.Lenient
	if cfg.UnitCostStrict || runStrict {
		mode = unitcost.Strict
	}

	orchestrator, err := pipeline.New(pipeline.Config{
		DatabaseURL: cfg.Store.DatabaseURL,
		Sources: pipeline.Sources{
			Expenses:  paths.GetExpensesPath(),
			Sales:     paths.GetSalesPath(),
			UnitCosts: paths.GetUnitCostPath(),
		},
		Rules:         r,
		UnitCostMode:  mode,
		SkipUnchanged: runChangedOnly,
		Logger:        slog.Default(),
	})
	exitOnError(err, "failed to initialize pipeline")
	defer orchestrator.Close()

	plan := pipeline.NewPlan(runExpenses, runSales, runUnitCosts)
	slog.Info("Starting run", "plan", plan.String(), "store", orchestrator.Store().Target())

	result, err := orchestrator.Run(cmd.Context(), plan)
	if result != nil {
		printRunResult(result)
	}
	exitOnError(err, "pipeline run failed")
}

func printRunResult(result *pipeline.Result) {
	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Run ID: %s\n", result.RunID)

	for _, step := range result.Skipped {
		fmt.Printf("  %-22s skipped (unchanged)\n", step)
	}
	for _, t := range result.Tables {
		fmt.Printf("  %-22s %6d rows\n", t.Table, t.Rows)
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	fmt.Println()
}
