package model

import (
	"fmt"
	"time"
)

// Classification is the financial nature of an expense.
type Classification string

const (
	Capex        Classification = "CAPEX"
	PreOperation Classification = "PRE_OPERATION"
	OpexVariable Classification = "OPEX_VARIABLE"
	OpexFixed    Classification = "OPEX_FIXED"
)

// Classifications lists every valid tag.
var Classifications = []Classification{Capex, PreOperation, OpexVariable, OpexFixed}

// Valid reports whether c is one of the four tags.
func (c Classification) Valid() bool {
	for _, v := range Classifications {
		if c == v {
			return true
		}
	}
	return false
}

// Operating reports whether c counts toward operating cost.
func (c Classification) Operating() bool {
	return c == OpexVariable || c == OpexFixed
}

// Expense is one cleaned and classified expense ledger row.
type Expense struct {
	Date           time.Time
	Type           string
	Amount         float64
	Comment        string
	Group1         string
	Group2         string
	Classification Classification
}

// Transaction is one sales ticket with its tax split.
type Transaction struct {
	Date  time.Time
	Total float64
	Tax   float64
	Net   float64
}

// Item is one sold line item.
type Item struct {
	Date    time.Time
	Section string
	Price   float64
}

// Section is a menu section with its category dimensions.
type Section struct {
	Name   string
	Total  float64
	Group1 string
	Group2 string
}

// UnitCost is the reference cost of one menu item. Group fields are nil when
// the section is not present in the section dimension.
type UnitCost struct {
	Section string
	Item    string
	Cost    float64
	Group1  *string
	Group2  *string
}

// CalendarDay is one row of the calendar dimension.
type CalendarDay struct {
	Date      time.Time
	Year      int
	Month     int
	MonthName string
	ISOWeek   int
	Quarter   int
	Day       int
}

var ExpenseSchema = Schema{
	Name: TableExpenses,
	Columns: []Column{
		{Name: "fecha", Type: Date},
		{Name: "tipo", Type: Text},
		{Name: "total", Type: Real},
		{Name: "comentario", Type: Text},
		{Name: "grupo_1", Type: Text},
		{Name: "grupo_2", Type: Text},
		{Name: "classificacion", Type: Text},
	},
}

var TransactionSchema = Schema{
	Name: TableTransactions,
	Columns: []Column{
		{Name: "fecha", Type: Date},
		{Name: "total", Type: Real},
		{Name: "iva", Type: Real},
		{Name: "total_sin_iva", Type: Real},
	},
}

var ItemSchema = Schema{
	Name: TableItems,
	Columns: []Column{
		{Name: "fecha", Type: Date},
		{Name: "seccion", Type: Text},
		{Name: "precio", Type: Real},
	},
}

var SectionSchema = Schema{
	Name: TableSections,
	Columns: []Column{
		{Name: "seccion", Type: Text},
		{Name: "total", Type: Real},
		{Name: "grupo_1", Type: Text},
		{Name: "grupo_2", Type: Text},
	},
}

var CalendarSchema = Schema{
	Name: TableCalendar,
	Columns: []Column{
		{Name: "fecha", Type: Date},
		{Name: "anio", Type: Integer},
		{Name: "mes", Type: Integer},
		{Name: "mes_nombre", Type: Text},
		{Name: "semana", Type: Integer},
		{Name: "trimestre", Type: Integer},
		{Name: "dia", Type: Integer},
	},
}

var UnitCostSchema = Schema{
	Name: TableUnitCosts,
	Columns: []Column{
		{Name: "seccion", Type: Text},
		{Name: "item", Type: Text},
		{Name: "costo_unitario", Type: Real},
		{Name: "grupo_1", Type: Text, Nullable: true},
		{Name: "grupo_2", Type: Text, Nullable: true},
	},
}

// ExpensesTable converts expenses to table rows.
func ExpensesTable(expenses []Expense) *Table {
	t := &Table{Schema: ExpenseSchema, Rows: make([][]any, 0, len(expenses))}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []any{e.Date, e.Type, e.Amount, e.Comment, e.Group1, e.Group2, string(e.Classification)})
	}
	return t
}

// ExpensesFromTable converts stored rows back to expenses.
func ExpensesFromTable(t *Table) ([]Expense, error) {
	expenses := make([]Expense, 0, len(t.Rows))
	for i, row := range t.Rows {
		d, err := date(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Schema.Name, i, err)
		}
		expenses = append(expenses, Expense{
			Date:           d,
			Type:           str(row[1]),
			Amount:         num(row[2]),
			Comment:        str(row[3]),
			Group1:         str(row[4]),
			Group2:         str(row[5]),
			Classification: Classification(str(row[6])),
		})
	}
	return expenses, nil
}

// TransactionsTable converts transactions to table rows.
func TransactionsTable(txns []Transaction) *Table {
	t := &Table{Schema: TransactionSchema, Rows: make([][]any, 0, len(txns))}
	for _, tx := range txns {
		t.Rows = append(t.Rows, []any{tx.Date, tx.Total, tx.Tax, tx.Net})
	}
	return t
}

// TransactionsFromTable converts stored rows back to transactions.
func TransactionsFromTable(t *Table) ([]Transaction, error) {
	txns := make([]Transaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		d, err := date(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Schema.Name, i, err)
		}
		txns = append(txns, Transaction{Date: d, Total: num(row[1]), Tax: num(row[2]), Net: num(row[3])})
	}
	return txns, nil
}

// ItemsTable converts items to table rows.
func ItemsTable(items []Item) *Table {
	t := &Table{Schema: ItemSchema, Rows: make([][]any, 0, len(items))}
	for _, it := range items {
		t.Rows = append(t.Rows, []any{it.Date, it.Section, it.Price})
	}
	return t
}

// ItemsFromTable converts stored rows back to items.
func ItemsFromTable(t *Table) ([]Item, error) {
	items := make([]Item, 0, len(t.Rows))
	for i, row := range t.Rows {
		d, err := date(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Schema.Name, i, err)
		}
		items = append(items, Item{Date: d, Section: str(row[1]), Price: num(row[2])})
	}
	return items, nil
}

// SectionsTable converts sections to table rows.
func SectionsTable(sections []Section) *Table {
	t := &Table{Schema: SectionSchema, Rows: make([][]any, 0, len(sections))}
	for _, s := range sections {
		t.Rows = append(t.Rows, []any{s.Name, s.Total, s.Group1, s.Group2})
	}
	return t
}

// SectionsFromTable converts stored rows back to sections.
func SectionsFromTable(t *Table) []Section {
	sections := make([]Section, 0, len(t.Rows))
	for _, row := range t.Rows {
		sections = append(sections, Section{Name: str(row[0]), Total: num(row[1]), Group1: str(row[2]), Group2: str(row[3])})
	}
	return sections
}

// CalendarTable converts calendar days to table rows.
func CalendarTable(days []CalendarDay) *Table {
	t := &Table{Schema: CalendarSchema, Rows: make([][]any, 0, len(days))}
	for _, d := range days {
		t.Rows = append(t.Rows, []any{
			d.Date,
			int64(d.Year),
			int64(d.Month),
			d.MonthName,
			int64(d.ISOWeek),
			int64(d.Quarter),
			int64(d.Day),
		})
	}
	return t
}

// UnitCostsTable converts unit costs to table rows.
func UnitCostsTable(costs []UnitCost) *Table {
	t := &Table{Schema: UnitCostSchema, Rows: make([][]any, 0, len(costs))}
	for _, c := range costs {
		var g1, g2 any
		if c.Group1 != nil {
			g1 = *c.Group1
		}
		if c.Group2 != nil {
			g2 = *c.Group2
		}
		t.Rows = append(t.Rows, []any{c.Section, c.Item, c.Cost, g1, g2})
	}
	return t
}

// UnitCostsFromTable converts stored rows back to unit costs.
func UnitCostsFromTable(t *Table) []UnitCost {
	costs := make([]UnitCost, 0, len(t.Rows))
	for _, row := range t.Rows {
		costs = append(costs, UnitCost{
			Section: str(row[0]),
			Item:    str(row[1]),
			Cost:    num(row[2]),
			Group1:  optStr(row[3]),
			Group2:  optStr(row[4]),
		})
	}
	return costs
}
