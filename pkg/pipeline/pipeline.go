package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/calendar"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/db"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/expense"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/sales"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/unitcost"
)

var (
	// ErrNoDatabaseURL is returned by New when no store is configured.
	ErrNoDatabaseURL = errors.New("database URL is required")
	// ErrSourceMissing is returned when a selected group's source file is absent.
	ErrSourceMissing = errors.New("source file not found")
)

// derivedSource is recorded as the source of tables computed from other tables.
const derivedSource = "derived"

// checksumKeyPrefix prefixes the metadata keys holding source checksums.
const checksumKeyPrefix = "source_checksum:"

// Sources are the upload files feeding each table group.
type Sources struct {
	Expenses  string
	Sales     string
	UnitCosts string
}

// Config configures an Orchestrator.
type Config struct {
	// DatabaseURL names the fact store. It is required.
	DatabaseURL string
	Sources     Sources
	// Rules defaults to rules.Default().
	Rules *rules.Rules
	// UnitCostMode selects strict or lenient unit-cost loading.
	UnitCostMode unitcost.Mode
	// SkipUnchanged drops groups whose source checksum matches the last
	// successful rebuild.
	SkipUnchanged bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// TableResult describes one replaced table.
type TableResult struct {
	Table  string
	Rows   int
	Source string
}

// Result summarizes a run. On failure it holds what completed before the
// failing step.
type Result struct {
	RunID    string
	Plan     Plan
	Tables   []TableResult
	Skipped  []Step
	Warnings []string
}

// Orchestrator runs plans against one fact store.
type Orchestrator struct {
	cfg        Config
	conn       *db.Connection
	history    *db.LoadHistory
	classifier *expense.Classifier
	logger     *slog.Logger
}

// New opens the configured store. It fails fast when no database URL is set.
func New(cfg Config) (*Orchestrator, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	if cfg.Rules == nil {
		cfg.Rules = rules.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open fact store: %w", err)
	}

	return &Orchestrator{
		cfg:        cfg,
		conn:       conn,
		history:    db.NewLoadHistory(conn),
		classifier: expense.NewClassifier(cfg.Rules),
		logger:     cfg.Logger,
	}, nil
}

// Close closes the fact store.
func (o *Orchestrator) Close() error {
	return o.conn.Close()
}

// Store returns the underlying fact store connection.
func (o *Orchestrator) Store() *db.Connection {
	return o.conn
}

// runState carries values between steps of one run.
type runState struct {
	result    *Result
	checksums map[string]string

	expensesBuilt bool
	expenseDates  []time.Time
	salesBuilt    bool
	salesDates    []time.Time
	sections      []model.Section
}

// Run executes plan. Each selected table is fully replaced. A failing step
// stops the run; tables replaced by earlier steps stay replaced.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*Result, error) {
	st := &runState{
		result:    &Result{RunID: uuid.NewString(), Plan: plan},
		checksums: make(map[string]string),
	}

	if o.cfg.SkipUnchanged {
		var err error
		if plan, err = o.dropUnchanged(ctx, plan, st); err != nil {
			return st.result, err
		}
		st.result.Plan = plan
	}

	o.logger.Info("Starting pipeline run", "run_id", st.result.RunID, "plan", plan.String())

	for _, step := range plan.Steps() {
		var err error
		switch step {
		case StepExpenses:
			err = o.runExpenses(ctx, st)
		case StepSales:
			err = o.runSales(ctx, st)
		case StepCalendar:
			err = o.runCalendar(ctx, st)
		case StepUnitCosts:
			err = o.runUnitCosts(ctx, st)
		}
		if err != nil {
			return st.result, fmt.Errorf("%s step failed: %w", step, err)
		}
	}

	o.logger.Info("Pipeline run completed", "run_id", st.result.RunID, "tables", len(st.result.Tables))
	return st.result, nil
}

func (o *Orchestrator) runExpenses(ctx context.Context, st *runState) error {
	path := o.cfg.Sources.Expenses
	if err := requireSource(path); err != nil {
		return err
	}

	expenses, err := expense.Load(path, o.classifier, o.logger)
	if err != nil {
		return err
	}

	if err := o.write(ctx, st, model.ExpensesTable(expenses), path); err != nil {
		return err
	}

	st.expensesBuilt = true
	st.expenseDates = make([]time.Time, len(expenses))
	for i, e := range expenses {
		st.expenseDates[i] = e.Date
	}

	return o.saveChecksum(ctx, st, StepExpenses, path)
}

func (o *Orchestrator) runSales(ctx context.Context, st *runState) error {
	path := o.cfg.Sources.Sales
	if err := requireSource(path); err != nil {
		return err
	}

	wb, err := sales.Load(path, o.cfg.Rules, o.logger)
	if err != nil {
		return err
	}

	tables := []*model.Table{
		model.TransactionsTable(wb.Transactions),
		model.ItemsTable(wb.Items),
		model.SectionsTable(wb.Sections),
	}
	for _, t := range tables {
		if err := o.write(ctx, st, t, path); err != nil {
			return err
		}
	}

	st.salesBuilt = true
	st.sections = wb.Sections
	st.salesDates = make([]time.Time, len(wb.Transactions))
	for i, tx := range wb.Transactions {
		st.salesDates[i] = tx.Date
	}

	return o.saveChecksum(ctx, st, StepSales, path)
}

// runCalendar spans the full history: the side not rebuilt in this run is
// read back from the store.
func (o *Orchestrator) runCalendar(ctx context.Context, st *runState) error {
	salesDates := st.salesDates
	if !st.salesBuilt {
		var err error
		if salesDates, err = o.conn.ReadDates(ctx, model.TableTransactions, "fecha"); err != nil {
			return err
		}
	}

	expenseDates := st.expenseDates
	if !st.expensesBuilt {
		var err error
		if expenseDates, err = o.conn.ReadDates(ctx, model.TableExpenses, "fecha"); err != nil {
			return err
		}
	}

	days, err := calendar.Build(salesDates, expenseDates)
	if err != nil {
		return err
	}

	return o.write(ctx, st, model.CalendarTable(days), derivedSource)
}

func (o *Orchestrator) runUnitCosts(ctx context.Context, st *runState) error {
	sections := st.sections
	if !st.salesBuilt {
		table, err := o.conn.ReadTable(ctx, model.SectionSchema)
		switch {
		case errors.Is(err, db.ErrTableNotFound):
			o.warn(st, "section dimension not found, unit costs will not be enriched")
		case err != nil:
			return err
		default:
			sections = model.SectionsFromTable(table)
		}
	}

	path := o.cfg.Sources.UnitCosts
	costs, err := unitcost.Load(path, o.cfg.UnitCostMode, sections, o.logger)
	if err != nil {
		return err
	}
	if len(costs) == 0 {
		o.warn(st, "unit-cost loader returned no rows, keeping the stored table")
		return nil
	}

	if err := o.write(ctx, st, model.UnitCostsTable(costs), path); err != nil {
		return err
	}
	return o.saveChecksum(ctx, st, StepUnitCosts, path)
}

// write replaces a table and records the load.
func (o *Orchestrator) write(ctx context.Context, st *runState, t *model.Table, source string) error {
	if err := o.conn.ReplaceTable(ctx, t); err != nil {
		return err
	}

	checksum, err := st.checksum(source)
	if err != nil {
		return err
	}

	err = o.history.RecordLoad(ctx, db.LoadRecord{
		RunID:          st.result.RunID,
		TableName:      t.Schema.Name,
		RowCount:       t.Len(),
		SourceFile:     source,
		SourceChecksum: checksum,
	})
	if err != nil {
		return err
	}

	st.result.Tables = append(st.result.Tables, TableResult{Table: t.Schema.Name, Rows: t.Len(), Source: source})
	o.logger.Info("Replaced table", "table", t.Schema.Name, "rows", t.Len())
	return nil
}

func (o *Orchestrator) saveChecksum(ctx context.Context, st *runState, step Step, path string) error {
	sum, err := st.checksum(path)
	if err != nil {
		return err
	}
	return o.history.SetMetadata(ctx, checksumKeyPrefix+string(step), sum)
}

// dropUnchanged removes groups whose source file matches the checksum stored
// by their last successful rebuild. Missing files stay in the plan so the
// step reports them.
func (o *Orchestrator) dropUnchanged(ctx context.Context, plan Plan, st *runState) (Plan, error) {
	groups := []struct {
		step     Step
		path     string
		selected *bool
	}{
		{StepExpenses, o.cfg.Sources.Expenses, &plan.Expenses},
		{StepSales, o.cfg.Sources.Sales, &plan.Sales},
		{StepUnitCosts, o.cfg.Sources.UnitCosts, &plan.UnitCosts},
	}

	for _, g := range groups {
		if !*g.selected {
			continue
		}
		sum, err := st.checksum(g.path)
		if err != nil {
			continue
		}
		stored, err := o.history.GetMetadata(ctx, checksumKeyPrefix+string(g.step))
		if err != nil {
			return plan, err
		}
		if stored == sum {
			*g.selected = false
			st.result.Skipped = append(st.result.Skipped, g.step)
			o.logger.Info("Source unchanged, skipping", "group", g.step, "path", g.path)
		}
	}

	return plan, nil
}

func (o *Orchestrator) warn(st *runState, msg string) {
	st.result.Warnings = append(st.result.Warnings, msg)
	o.logger.Warn(msg)
}

// checksum returns the SHA-256 of a source file, caching it for the run.
// Derived sources have no checksum.
func (st *runState) checksum(path string) (string, error) {
	if path == derivedSource {
		return "", nil
	}
	if sum, ok := st.checksums[path]; ok {
		return sum, nil
	}

	sum, err := fileChecksum(path)
	if err != nil {
		return "", err
	}
	st.checksums[path] = sum
	return sum, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func requireSource(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrSourceMissing)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return fmt.Errorf("failed to access %s: %w", path, err)
	}
	return nil
}
