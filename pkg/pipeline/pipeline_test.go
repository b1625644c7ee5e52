package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/calendar"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/expense"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/sales"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/unitcost"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook/workbooktest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func writeExpenses(t *testing.T, dir string, rows ...[]any) string {
	t.Helper()
	sheet := [][]any{{"Libro de gastos"}, {"Fecha", "Tipo", "Total", "Comentario"}}
	return workbooktest.WriteXLSX(t, dir, "gastos.xlsx",
		workbooktest.Sheet{Name: expense.SheetName, Rows: append(sheet, rows...)})
}

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	return workbooktest.WriteXLSX(t, dir, "ventas.xlsx",
		workbooktest.Sheet{Name: sales.SheetTransactions, Rows: [][]any{
			{"Transacciones"},
			{"Fecha Completado", "Total"},
			{"20/09/2025", 1190},
			{"05/10/2025", 2380},
		}},
		workbooktest.Sheet{Name: sales.SheetItems, Rows: [][]any{
			{"Items"},
			{"Fecha Completado", "Sección", "Precio"},
			{"20/09/2025", "Café", 1190},
			{"05/10/2025", "Pizzas", 2380},
		}},
		workbooktest.Sheet{Name: sales.SheetSections, Rows: [][]any{
			{"Secciones"},
			{"Sección", "Total"},
			{"Café", 1190},
			{"Pizzas", 2380},
		}},
	)
}

func writeUnitCosts(t *testing.T, dir string) string {
	t.Helper()
	return workbooktest.WriteXLSX(t, dir, "costo_unitario.xlsx",
		workbooktest.Sheet{Name: unitcost.SheetName, Rows: [][]any{
			{"Sección", "Item", "Costo Unitario"},
			{"Café", "Latte", 950},
			{"Pizzas", "Margarita", 3100},
		}},
	)
}

type fixture struct {
	dir string
	cfg Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		dir: dir,
		cfg: Config{
			DatabaseURL: filepath.Join(dir, "store", "facts.db"),
			Sources: Sources{
				Expenses: writeExpenses(t, dir,
					[]any{"15/09/2025", "ARRIENDO", 500000, "Landlord"},
					[]any{"02/10/2025", "INSUMO", 30000, "BOZZO S.A."},
					[]any{"10/10/2025", "LUZ", 80000, "Enel"},
				),
				Sales:     writeSales(t, dir),
				UnitCosts: writeUnitCosts(t, dir),
			},
			Logger: quietLogger,
		},
	}
}

func (f *fixture) open(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(f.cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func readTable(t *testing.T, conn *db.Connection, s model.Schema) *model.Table {
	t.Helper()
	table, err := conn.ReadTable(context.Background(), s)
	if err != nil {
		t.Fatalf("ReadTable(%s) error = %v", s.Name, err)
	}
	return table
}

func TestPlanSteps(t *testing.T) {
	tests := []struct {
		name     string
		plan     Plan
		expected []Step
	}{
		{"none selects all", NewPlan(false, false, false), []Step{StepExpenses, StepSales, StepCalendar, StepUnitCosts}},
		{"expenses", NewPlan(true, false, false), []Step{StepExpenses, StepCalendar}},
		{"sales", NewPlan(false, true, false), []Step{StepSales, StepCalendar}},
		{"unit costs", NewPlan(false, false, true), []Step{StepUnitCosts}},
		{"sales and unit costs", NewPlan(false, true, true), []Step{StepSales, StepCalendar, StepUnitCosts}},
		{"empty", Plan{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.Steps(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Steps() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestNewRequiresDatabaseURL(t *testing.T) {
	if _, err := New(Config{DatabaseURL: "  "}); !errors.Is(err, ErrNoDatabaseURL) {
		t.Errorf("New() error = %v, expected ErrNoDatabaseURL", err)
	}
}

func TestRunFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	result, err := o.Run(ctx, FullPlan())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.RunID == "" {
		t.Errorf("Run() returned empty run id")
	}

	rows := make(map[string]int)
	for _, tr := range result.Tables {
		rows[tr.Table] = tr.Rows
	}
	expected := map[string]int{
		model.TableExpenses:     3,
		model.TableTransactions: 2,
		model.TableItems:        2,
		model.TableSections:     2,
		model.TableCalendar:     26, // 2025-09-15 .. 2025-10-10
		model.TableUnitCosts:    2,
	}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Run() tables = %v, expected %v", rows, expected)
	}

	expenses, err := model.ExpensesFromTable(readTable(t, o.Store(), model.ExpenseSchema))
	if err != nil {
		t.Fatalf("ExpensesFromTable() error = %v", err)
	}
	classes := []model.Classification{model.PreOperation, model.Capex, model.OpexFixed}
	for i, e := range expenses {
		if e.Classification != classes[i] {
			t.Errorf("expense %d classification = %s, expected %s", i, e.Classification, classes[i])
		}
	}

	costs := model.UnitCostsFromTable(readTable(t, o.Store(), model.UnitCostSchema))
	for _, c := range costs {
		if c.Group1 == nil || c.Group2 == nil {
			t.Errorf("unit cost %s/%s was not enriched", c.Section, c.Item)
		}
	}

	stats, err := db.NewLoadHistory(o.Store()).GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Runs != 1 {
		t.Errorf("GetStats().Runs = %d, expected 1", stats.Runs)
	}
}

func TestRunIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	if _, err := o.Run(ctx, FullPlan()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := make(map[string]*model.Table)
	for _, s := range model.Schemas() {
		first[s.Name] = readTable(t, o.Store(), s)
	}

	if _, err := o.Run(ctx, FullPlan()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	for _, s := range model.Schemas() {
		if got := readTable(t, o.Store(), s); !reflect.DeepEqual(got.Rows, first[s.Name].Rows) {
			t.Errorf("%s changed between identical runs", s.Name)
		}
	}
}

func TestRunExpensesOnlyKeepsStoredSalesInCalendar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	if _, err := o.Run(ctx, FullPlan()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The new ledger ends before the stored sales do.
	writeExpenses(t, f.dir, []any{"01/09/2025", "ARRIENDO", 500000, "Landlord"})

	result, err := o.Run(ctx, NewPlan(true, false, false))
	if err != nil {
		t.Fatalf("Run(expenses) error = %v", err)
	}
	for _, tr := range result.Tables {
		if tr.Table == model.TableTransactions || tr.Table == model.TableUnitCosts {
			t.Errorf("Run(expenses) replaced %s", tr.Table)
		}
	}

	days := readTable(t, o.Store(), model.CalendarSchema)
	if days.Len() == 0 {
		t.Fatalf("calendar is empty")
	}
	firstDay := days.Rows[0][0].(time.Time)
	lastDay := days.Rows[days.Len()-1][0].(time.Time)
	if !firstDay.Equal(day(2025, 9, 1)) || !lastDay.Equal(day(2025, 10, 5)) {
		t.Errorf("calendar spans %s..%s, expected 2025-09-01..2025-10-05", firstDay, lastDay)
	}
}

func TestRunUnitCostsOnlyUsesStoredSections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	if _, err := o.Run(ctx, NewPlan(true, true, false)); err != nil {
		t.Fatalf("Run(expenses, sales) error = %v", err)
	}
	exists, err := o.Store().TableExists(ctx, model.TableUnitCosts)
	if err != nil || exists {
		t.Fatalf("TableExists(unit costs) = %v, %v, expected no table yet", exists, err)
	}

	result, err := o.Run(ctx, NewPlan(false, false, true))
	if err != nil {
		t.Fatalf("Run(unit costs) error = %v", err)
	}
	if len(result.Tables) != 1 || result.Tables[0].Table != model.TableUnitCosts {
		t.Fatalf("Run(unit costs) tables = %+v", result.Tables)
	}

	for _, c := range model.UnitCostsFromTable(readTable(t, o.Store(), model.UnitCostSchema)) {
		if c.Group1 == nil {
			t.Errorf("unit cost %s/%s was not enriched from stored sections", c.Section, c.Item)
		}
	}
}

func TestRunSalesOnlyWithoutStoredExpenses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	result, err := o.Run(ctx, NewPlan(false, true, false))
	if !errors.Is(err, calendar.ErrNoDates) {
		t.Fatalf("Run(sales) error = %v, expected ErrNoDates", err)
	}

	// Tables replaced before the calendar step stay replaced.
	if len(result.Tables) != 3 {
		t.Errorf("Run(sales) tables = %+v, expected the three sales tables", result.Tables)
	}
	for _, name := range []string{model.TableTransactions, model.TableItems, model.TableSections} {
		count, err := o.Store().CountRows(ctx, name)
		if err != nil || count != 2 {
			t.Errorf("CountRows(%s) = %d, %v, expected 2", name, count, err)
		}
	}
	exists, err := o.Store().TableExists(ctx, model.TableCalendar)
	if err != nil || exists {
		t.Errorf("TableExists(calendar) = %v, %v, expected no calendar", exists, err)
	}
}

func TestRunUnitCostsWithoutSections(t *testing.T) {
	f := newFixture(t)
	o := f.open(t)

	result, err := o.Run(context.Background(), NewPlan(false, false, true))
	if err != nil {
		t.Fatalf("Run(unit costs) error = %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Errorf("Run(unit costs) expected a warning about missing sections")
	}
	for _, c := range model.UnitCostsFromTable(readTable(t, o.Store(), model.UnitCostSchema)) {
		if c.Group1 != nil {
			t.Errorf("unit cost %s/%s has groups without a section dimension", c.Section, c.Item)
		}
	}
}

func TestRunEmptyUnitCostsKeepsStoredTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.open(t)

	if _, err := o.Run(ctx, FullPlan()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	o.cfg.Sources.UnitCosts = filepath.Join(f.dir, "missing.xlsx")
	result, err := o.Run(ctx, NewPlan(false, false, true))
	if err != nil {
		t.Fatalf("Run(unit costs) error = %v", err)
	}
	if len(result.Tables) != 0 || len(result.Warnings) == 0 {
		t.Errorf("Run(unit costs) = %+v, expected a warning and no writes", result)
	}

	count, err := o.Store().CountRows(ctx, model.TableUnitCosts)
	if err != nil || count != 2 {
		t.Errorf("CountRows() = %d, %v, expected stored rows kept", count, err)
	}
}

func TestRunStrictUnitCostsMissingFile(t *testing.T) {
	f := newFixture(t)
	f.cfg.UnitCostMode = unitcost.Strict
	f.cfg.Sources.UnitCosts = filepath.Join(f.dir, "missing.xlsx")
	o := f.open(t)

	if _, err := o.Run(context.Background(), NewPlan(false, false, true)); err == nil {
		t.Errorf("Run(strict) expected error for missing unit-cost file")
	}
}

func TestRunMissingSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cfg.Sources.Sales = filepath.Join(f.dir, "missing.xlsx")
	o := f.open(t)

	_, err := o.Run(ctx, FullPlan())
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("Run() error = %v, expected ErrSourceMissing", err)
	}

	exists, err := o.Store().TableExists(ctx, model.TableCalendar)
	if err != nil || exists {
		t.Errorf("TableExists(calendar) = %v, %v, expected no calendar after failed run", exists, err)
	}
}

func TestRunSkipUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cfg.SkipUnchanged = true
	o := f.open(t)

	first, err := o.Run(ctx, FullPlan())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if len(first.Skipped) != 0 {
		t.Errorf("first Run() skipped %v", first.Skipped)
	}

	second, err := o.Run(ctx, FullPlan())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	expected := []Step{StepExpenses, StepSales, StepUnitCosts}
	if !reflect.DeepEqual(second.Skipped, expected) || len(second.Tables) != 0 {
		t.Errorf("second Run() = skipped %v, tables %+v", second.Skipped, second.Tables)
	}

	writeExpenses(t, f.dir, []any{"01/09/2025", "ARRIENDO", 500000, "Landlord"})
	third, err := o.Run(ctx, FullPlan())
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if !third.Plan.Expenses || third.Plan.Sales || third.Plan.UnitCosts {
		t.Errorf("third Run() plan = %+v, expected expenses only", third.Plan)
	}
}
