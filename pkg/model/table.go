// Package model defines the financial fact model and the table layouts it is
// persisted with.
package model

import (
	"fmt"
	"time"
)

// Table names in the fact store.
const (
	TableExpenses     = "fact_gastos"
	TableTransactions = "fact_ventas"
	TableItems        = "fact_items"
	TableSections     = "dim_secciones"
	TableCalendar     = "dim_calendario"
	TableUnitCosts    = "dim_costos_unitarios"
)

// ColumnType is the logical type of a stored column.
type ColumnType int

const (
	Text ColumnType = iota
	Real
	Integer
	Date
)

func (c ColumnType) String() string {
	switch c {
	case Text:
		return "text"
	case Real:
		return "real"
	case Integer:
		return "integer"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(c))
	}
}

// Column describes one stored column.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema describes a stored table.
type Schema struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Table is a schema plus rows of values. Values are string, float64, int64,
// time.Time (for Date columns) or nil for NULL.
type Table struct {
	Schema Schema
	Rows   [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Validate checks every row against the schema.
func (t *Table) Validate() error {
	for r, row := range t.Rows {
		if len(row) != len(t.Schema.Columns) {
			return fmt.Errorf("%s row %d: expected %d values, got %d", t.Schema.Name, r, len(t.Schema.Columns), len(row))
		}
		for i, col := range t.Schema.Columns {
			if err := checkValue(col, row[i]); err != nil {
				return fmt.Errorf("%s row %d: %w", t.Schema.Name, r, err)
			}
		}
	}
	return nil
}

func checkValue(col Column, v any) error {
	if v == nil {
		if col.Nullable {
			return nil
		}
		return fmt.Errorf("column %s must not be null", col.Name)
	}

	ok := false
	switch col.Type {
	case Text:
		_, ok = v.(string)
	case Real:
		_, ok = v.(float64)
	case Integer:
		_, ok = v.(int64)
	case Date:
		_, ok = v.(time.Time)
	}
	if !ok {
		return fmt.Errorf("column %s: %T is not a %s value", col.Name, v, col.Type)
	}
	return nil
}

// Schemas returns the layouts of every table the pipeline writes, in build order.
func Schemas() []Schema {
	return []Schema{
		ExpenseSchema,
		TransactionSchema,
		ItemSchema,
		SectionSchema,
		CalendarSchema,
		UnitCostSchema,
	}
}

// SchemaFor looks up a table layout by name.
func SchemaFor(name string) (Schema, bool) {
	for _, s := range Schemas() {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func optStr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func date(v any) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("expected date, got %T", v)
	}
	return t, nil
}
