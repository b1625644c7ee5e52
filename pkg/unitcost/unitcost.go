// Package unitcost loads the optional unit-cost reference workbook.
package unitcost

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook"
)

// SheetName is the preferred sheet; the first sheet is used when it is absent.
const SheetName = "Items conteo"

// Required column names after normalization.
const (
	ColumnSection  = "seccion"
	ColumnItem     = "item"
	ColumnUnitCost = "costo_unitario"
)

var (
	// ErrMissingColumns is wrapped by SchemaError.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrAmbiguousColumn is returned when several columns look like a unit cost.
	ErrAmbiguousColumn = errors.New("ambiguous unit cost column")
)

// SchemaError names the required columns absent from the file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unit-cost file: %v: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrMissingColumns
}

// Mode selects how schema problems are reported.
type Mode int

const (
	// Lenient returns an empty result and logs a warning.
	Lenient Mode = iota
	// Strict returns an error.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// aliases maps accepted header spellings to the canonical column names.
var aliases = map[string]string{
	"section":   ColumnSection,
	"items":     ColumnItem,
	"unit_cost": ColumnUnitCost,
}

// Load reads unit costs from path, deduplicates them on (section, item) and
// enriches them with the group labels of sections. A missing file yields an
// empty result in lenient mode.
func Load(path string, mode Mode, sections []model.Section, logger *slog.Logger) ([]model.UnitCost, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && mode == Lenient {
			logger.Warn("Unit-cost file not found, skipping", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access unit-cost file: %w", err)
	}

	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	rows, err := wb.Rows(pickSheet(wb.SheetNames()))
	if err != nil {
		return nil, fmt.Errorf("failed to read unit-cost sheet: %w", err)
	}

	table, err := locateHeader(rows)
	if err != nil {
		if mode == Lenient {
			logger.Warn("Unit-cost file rejected", "path", path, "error", err)
			return nil, nil
		}
		return nil, err
	}

	costs := Extract(table, logger)
	return Enrich(costs, sections), nil
}

func pickSheet(names []string) string {
	for _, n := range names {
		if n == SheetName {
			return n
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return SheetName
}

// locateHeader uses the first row as the header unless only the second row
// carries the required columns.
func locateHeader(rows [][]string) (*workbook.Table, error) {
	first, err := workbook.FromRows(rows, 1)
	if err != nil {
		return nil, err
	}
	firstErr := Resolve(first)
	if firstErr == nil {
		return first, nil
	}

	second, err := workbook.FromRows(rows, 2)
	if err != nil {
		return nil, err
	}
	if Resolve(second) == nil {
		return second, nil
	}
	return nil, firstErr
}

// Resolve renames aliased and heuristically detected columns to their
// canonical names and checks that every required column is present. A column
// whose name contains both "cost" and "unit" is taken as the unit cost when
// no exact match exists; more than one such column is an error.
func Resolve(table *workbook.Table) error {
	for from, to := range aliases {
		if table.Has(from) && !table.Has(to) {
			table.Rename(from, to)
		}
	}

	if !table.Has(ColumnUnitCost) {
		var candidates []string
		for _, c := range table.Columns {
			if strings.Contains(c, "cost") && strings.Contains(c, "unit") {
				candidates = append(candidates, c)
			}
		}
		switch len(candidates) {
		case 0:
		case 1:
			table.Rename(candidates[0], ColumnUnitCost)
		default:
			return fmt.Errorf("%w: %s", ErrAmbiguousColumn, strings.Join(candidates, ", "))
		}
	}

	if missing := table.Missing(ColumnSection, ColumnItem, ColumnUnitCost); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Extract cleans resolved rows. Rows with an empty key, a non-numeric cost or
// a negative cost are dropped. For duplicate (section, item) keys only the
// last row is kept, at the position of that last row.
func Extract(table *workbook.Table, logger *slog.Logger) []model.UnitCost {
	if logger == nil {
		logger = slog.Default()
	}

	type key struct{ section, item string }

	var valid []model.UnitCost
	last := make(map[key]int)
	dropped := 0
	for _, row := range table.Rows {
		section := normalize.Text(table.Cell(row, ColumnSection))
		item := normalize.Text(table.Cell(row, ColumnItem))
		cost, ok := normalize.ParseNumber(table.Cell(row, ColumnUnitCost))
		if section == "" || item == "" || !ok || cost < 0 {
			dropped++
			continue
		}

		last[key{section, item}] = len(valid)
		valid = append(valid, model.UnitCost{Section: section, Item: item, Cost: cost})
	}

	costs := make([]model.UnitCost, 0, len(last))
	for i, c := range valid {
		if last[key{c.Section, c.Item}] == i {
			costs = append(costs, c)
		}
	}

	logger.Debug("Extracted unit costs", "rows", len(costs), "dropped", dropped, "duplicates", len(valid)-len(costs))
	return costs
}

// Enrich copies group labels from the section dimension. Costs whose section
// is unknown keep nil groups.
func Enrich(costs []model.UnitCost, sections []model.Section) []model.UnitCost {
	bySection := make(map[string]model.Section, len(sections))
	for _, s := range sections {
		bySection[s.Name] = s
	}

	result := make([]model.UnitCost, len(costs))
	for i, c := range costs {
		if s, ok := bySection[c.Section]; ok {
			g1, g2 := s.Group1, s.Group2
			c.Group1, c.Group2 = &g1, &g2
		} else {
			c.Group1, c.Group2 = nil, nil
		}
		result[i] = c
	}
	return result
}
