package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/report"
)

var (
	reportFrom string
	reportTo   string
)

// reportCmd represents the report command.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the financial KPIs",
	Long: `Print the predefined aggregations over the fact tables.

Shows:
- Sales, operating costs, EBIT, corporate tax and net result
- Contribution margin and break-even sales
- Invested capital (CAPEX and pre-operation, always historical)
- Monthly P&L with investment recovery
- Operating result by category

Example:
  cafe-etl report
  cafe-etl report --from 2025-10-01 --to 2025-12-31`,
	Run: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
}

func runReport(cmd *cobra.Command, args []string) {
	period, err := parsePeriod(reportFrom, reportTo)
	exitOnError(err, "invalid period")

	cfg := loadConfig([]string{"store", "databaseUrl"})
	r := loadRules(cfg)

	conn, err := db.Open(cfg.Store.DatabaseURL)
	exitOnError(err, "failed to open fact store")
	defer conn.Close()

	slog.Debug("Building report", "from", reportFrom, "to", reportTo)
	rep, err := report.Load(cmd.Context(), conn, r, period)
	exitOnError(err, "failed to build report")

	printReport(rep)
}

func parsePeriod(from, to string) (report.Period, error) {
	var p report.Period
	var err error
	if from != "" {
		if p.From, err = time.Parse("2006-01-02", from); err != nil {
			return p, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
	}
	if to != "" {
		if p.To, err = time.Parse("2006-01-02", to); err != nil {
			return p, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return p, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return p, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(0)
}

func printReport(rep *report.Report) {
	s := rep.Summary

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Sales:               %14s\n", money(s.Sales))
	fmt.Printf("Variable costs:      %14s\n", money(s.VariableCost))
	fmt.Printf("Fixed costs:         %14s\n", money(s.FixedCost))
	fmt.Printf("Gross margin:        %14s\n", money(s.GrossMargin))
	fmt.Printf("EBIT:                %14s\n", money(s.EBIT))
	fmt.Printf("Corporate tax:       %14s\n", money(s.CorporateTax))
	fmt.Printf("Net result:          %14s\n", money(s.NetResult))
	fmt.Printf("Contribution margin: %13s%%\n", s.ContributionMargin.Shift(2).StringFixed(1))
	if s.HasBreakEven {
		fmt.Printf("Break-even sales:    %14s\n", money(s.BreakEven))
		fmt.Printf("Break-even delta:    %14s\n", money(s.BreakEvenDelta))
	} else {
		fmt.Printf("Break-even sales:    %14s\n", "n/a")
	}

	fmt.Println("\n=== Investment ===")
	fmt.Printf("CAPEX:               %14s\n", money(s.Capex))
	fmt.Printf("Pre-operation:       %14s\n", money(s.PreOperation))
	fmt.Printf("Invested capital:    %14s\n", money(s.InvestedCapital))

	if len(rep.Months) > 0 {
		fmt.Println("\n=== Monthly P&L ===")
		fmt.Printf("  %-7s %12s %12s %12s %12s %12s %14s\n", "month", "sales", "variable", "fixed", "operating", "cumulative", "recovery")
		for _, m := range rep.Months {
			fmt.Printf("  %04d-%02d %12s %12s %12s %12s %12s %14s\n",
				m.Year, int(m.Month), money(m.Sales), money(m.VariableCost), money(m.FixedCost),
				money(m.Operating), money(m.Cumulative), money(m.Recovery))
		}
	}

	if len(rep.Categories) > 0 {
		fmt.Println("\n=== Category Margin ===")
		fmt.Printf("  %-12s %12s %7s %12s %12s %12s\n", "category", "sales", "share", "variable", "fixed", "result")
		for _, c := range rep.Categories {
			fmt.Printf("  %-12s %12s %6s%% %12s %12s %12s\n",
				c.Group, money(c.Sales), c.Share.Shift(2).StringFixed(1),
				money(c.VariableCost), money(c.FixedCost), money(c.Result))
		}
	}

	fmt.Println()
}
