package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
)

// dateLayout is the text form of DATE values in SQLite.
const dateLayout = "2006-01-02"

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	name         string
	driver       string
	numbered     bool
	types        map[model.ColumnType]string
	tableExists  string
	bindDateText bool
}

var sqliteDialect = &dialect{
	name:   "sqlite",
	driver: "sqlite3",
	types: map[model.ColumnType]string{
		model.Text:    "TEXT",
		model.Real:    "REAL",
		model.Integer: "INTEGER",
		model.Date:    "DATE",
	},
	tableExists:  `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	bindDateText: true,
}

var postgresDialect = &dialect{
	name:     "postgres",
	driver:   "pgx",
	numbered: true,
	types: map[model.ColumnType]string{
		model.Text:    "TEXT",
		model.Real:    "DOUBLE PRECISION",
		model.Integer: "BIGINT",
		model.Date:    "DATE",
	},
	tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`,
}

// rebind rewrites '?' placeholders to $1, $2, ... for engines that need it.
func (d *dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bind converts a model value to a driver argument.
func (d *dialect) bind(v any) any {
	if t, ok := v.(time.Time); ok {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if d.bindDateText {
			return t.Format(dateLayout)
		}
		return t
	}
	return v
}

// quote quotes an identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
