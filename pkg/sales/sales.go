// Package sales splits a point-of-sale workbook into transaction, item and
// section tables.
package sales

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/rules"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook"
)

// Sheet names in the sales workbook.
const (
	SheetTransactions = "Transacciones"
	SheetItems        = "Items"
	SheetSections     = "Secciones"

	// HeaderRow is the 1-based header row shared by all sales sheets.
	HeaderRow = 2
)

// Column names after header normalization.
const (
	ColumnCompleted = "fecha_completado"
	ColumnDate      = "fecha"
	ColumnTotal     = "total"
	ColumnPrice     = "precio"
	ColumnSection   = "seccion"
)

// Workbook holds the three tables derived from one sales export.
type Workbook struct {
	Transactions []model.Transaction
	Items        []model.Item
	Sections     []model.Section
}

// Load reads all three sales sheets from path.
func Load(path string, r *rules.Rules, logger *slog.Logger) (*Workbook, error) {
	if r == nil {
		r = rules.Default()
	}

	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result := &Workbook{}

	table, err := workbook.ReadSheet(wb, SheetTransactions, HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	if result.Transactions, err = ExtractTransactions(table, r.SalesTaxRate(), logger); err != nil {
		return nil, err
	}

	table, err = workbook.ReadSheet(wb, SheetItems, HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	if result.Items, err = ExtractItems(table, logger); err != nil {
		return nil, err
	}

	table, err = workbook.ReadSheet(wb, SheetSections, HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections: %w", err)
	}
	if result.Sections, err = ExtractSections(table, r, logger); err != nil {
		return nil, err
	}

	return result, nil
}

// ExtractTransactions cleans ticket rows and splits each total into tax and
// net amounts.
func ExtractTransactions(table *workbook.Table, taxRate float64, logger *slog.Logger) ([]model.Transaction, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useCompletionDate(table)
	if missing := table.Missing(ColumnDate, ColumnTotal); len(missing) > 0 {
		return nil, fmt.Errorf("transactions sheet is missing columns %v", missing)
	}

	txns := make([]model.Transaction, 0, len(table.Rows))
	dropped := 0
	for _, row := range table.Rows {
		date, ok := normalize.ParseDate(table.Cell(row, ColumnDate))
		if !ok {
			dropped++
			continue
		}
		total, ok := normalize.ParseNumber(table.Cell(row, ColumnTotal))
		if !ok {
			dropped++
			continue
		}

		tax, net := SplitTax(total, taxRate)
		txns = append(txns, model.Transaction{Date: date, Total: total, Tax: tax, Net: net})
	}

	logger.Debug("Extracted transactions", "rows", len(txns), "dropped", dropped)
	return txns, nil
}

// SplitTax returns the tax included in total, rounded half-to-even to a whole
// unit, and the remaining net amount. tax + net equals total exactly in
// float64: tax is a whole number, so total - tax needs no rounding.
func SplitTax(total, rate float64) (tax, net float64) {
	tax = decimal.NewFromFloat(total).Mul(decimal.NewFromFloat(rate)).RoundBank(0).InexactFloat64()
	return tax, total - tax
}

// ExtractItems cleans line item rows.
func ExtractItems(table *workbook.Table, logger *slog.Logger) ([]model.Item, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useCompletionDate(table)
	if missing := table.Missing(ColumnDate, ColumnPrice); len(missing) > 0 {
		return nil, fmt.Errorf("items sheet is missing columns %v", missing)
	}
	if !table.Has(ColumnSection) {
		logger.Warn("Items sheet has no section column", "column", ColumnSection)
	}

	items := make([]model.Item, 0, len(table.Rows))
	dropped := 0
	for _, row := range table.Rows {
		date, ok := normalize.ParseDate(table.Cell(row, ColumnDate))
		if !ok {
			dropped++
			continue
		}
		price, ok := normalize.ParseNumber(table.Cell(row, ColumnPrice))
		if !ok {
			dropped++
			continue
		}

		items = append(items, model.Item{
			Date:    date,
			Section: normalize.Text(table.Cell(row, ColumnSection)),
			Price:   price,
		})
	}

	logger.Debug("Extracted items", "rows", len(items), "dropped", dropped)
	return items, nil
}

// ExtractSections builds the section dimension. Section names are unique;
// the first row for a section wins.
func ExtractSections(table *workbook.Table, r *rules.Rules, logger *slog.Logger) ([]model.Section, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if missing := table.Missing(ColumnSection, ColumnTotal); len(missing) > 0 {
		return nil, fmt.Errorf("sections sheet is missing columns %v", missing)
	}

	sections := make([]model.Section, 0, len(table.Rows))
	seen := make(map[string]bool)
	dropped := 0
	for _, row := range table.Rows {
		name := normalize.Text(table.Cell(row, ColumnSection))
		total, ok := normalize.ParseNumber(table.Cell(row, ColumnTotal))
		if name == "" || !ok {
			dropped++
			continue
		}
		if seen[name] {
			logger.Debug("Duplicate section ignored", "section", name)
			continue
		}
		seen[name] = true

		group1, group2 := SectionGroups(r, name)
		sections = append(sections, model.Section{Name: name, Total: total, Group1: group1, Group2: group2})
	}

	logger.Debug("Extracted sections", "rows", len(sections), "dropped", dropped)
	return sections, nil
}

// SectionGroups maps a section name to its group_1 and group_2 labels.
func SectionGroups(r *rules.Rules, section string) (group1, group2 string) {
	return r.SectionGroups(section)
}

func useCompletionDate(table *workbook.Table) {
	if table.Has(ColumnCompleted) {
		table.Rename(ColumnCompleted, ColumnDate)
	}
}
