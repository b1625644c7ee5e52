package workbook

import (
	"fmt"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/normalize"
)

// Table is a sheet body addressed by normalized column names.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a Table from raw header cells. Headers are normalized;
// when two columns normalize to the same name the first one wins.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{
		Columns: normalize.Headers(header),
		Rows:    rows,
	}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// Has reports whether a column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Index returns the position of a column, or -1.
func (t *Table) Index(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Rename renames a column. Renaming onto an existing name replaces the
// lookup for that name.
func (t *Table) Rename(from, to string) {
	i, ok := t.index[from]
	if !ok {
		return
	}
	t.Columns[i] = to
	t.reindex()
	t.index[to] = i
}

// Missing returns the subset of columns not present in the table.
func (t *Table) Missing(columns ...string) []string {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Cell returns the text of a column in a row; absent cells read as "".
func (t *Table) Cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadSheet reads a sheet whose header sits on headerRow (1-based). Rows
// above the header are skipped.
func ReadSheet(wb Workbook, sheet string, headerRow int) (*Table, error) {
	rows, err := wb.Rows(sheet)
	if err != nil {
		return nil, err
	}
	return FromRows(rows, headerRow)
}

// FromRows splits raw rows into a header and body at headerRow (1-based).
func FromRows(rows [][]string, headerRow int) (*Table, error) {
	if headerRow < 1 {
		return nil, fmt.Errorf("invalid header row %d", headerRow)
	}
	if len(rows) < headerRow {
		return NewTable(nil, nil), nil
	}
	return NewTable(rows[headerRow-1], rows[headerRow:]), nil
}
