package expense

import (
	"fmt"
	"log/slog"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
	"github.com/shunichi-ikebuchi/cafe-finance/pkg/workbook"
)

const (
	// SheetName is the ledger sheet holding expenses.
	SheetName = "Gastos"
	// HeaderRow is the 1-based row of the ledger header.
	HeaderRow = 2
)

// Ledger column names after header normalization.
const (
	ColumnDate    = "fecha"
	ColumnType    = "tipo"
	ColumnAmount  = "total"
	ColumnComment = "comentario"
)

// Load reads the expense sheet of a ledger file and classifies its rows.
func Load(path string, c *Classifier, logger *slog.Logger) ([]model.Expense, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	table, err := workbook.ReadSheet(wb, SheetName, HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read expense ledger: %w", err)
	}

	return Extract(table, c, logger)
}

// Extract cleans and classifies ledger rows. Rows without a valid date or
// amount are dropped.
func Extract(table *workbook.Table, c *Classifier, logger *slog.Logger) ([]model.Expense, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if missing := table.Missing(ColumnDate, ColumnType, ColumnAmount, ColumnComment); len(missing) > 0 {
		return nil, fmt.Errorf("expense ledger is missing columns %v", missing)
	}

	expenses := make([]model.Expense, 0, len(table.Rows))
	dropped := 0
	for _, row := range table.Rows {
		date, ok := normalize.ParseDate(table.Cell(row, ColumnDate))
		if !ok {
			dropped++
			continue
		}
		amount, ok := normalize.ParseNumber(table.Cell(row, ColumnAmount))
		if !ok {
			dropped++
			continue
		}

		expenses = append(expenses, c.Apply(model.Expense{
			Date:    date,
			Type:    normalize.Text(table.Cell(row, ColumnType)),
			Amount:  amount,
			Comment: normalize.Text(table.Cell(row, ColumnComment)),
		}))
	}

	logger.Debug("Extracted expenses", "rows", len(expenses), "dropped", dropped)
	return expenses, nil
}
