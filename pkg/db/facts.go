package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
)

// ErrTableNotFound is returned when reading a table that was never written.
var ErrTableNotFound = errors.New("table not found")

// ReplaceTable drops and recreates t's table and inserts its rows, all in one
// transaction. If any step fails the previous contents stay in place.
func (c *Connection) ReplaceTable(ctx context.Context, t *model.Table) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid table: %w", err)
	}

	name := quote(t.Schema.Name)
	return c.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t.Schema.Name, err)
		}
		if _, err := tx.ExecContext(ctx, c.createStatement(t.Schema)); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.Schema.Name, err)
		}
		if len(t.Rows) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, c.dialect.rebind(insertStatement(t.Schema)))
		if err != nil {
			return fmt.Errorf("failed to prepare insert into %s: %w", t.Schema.Name, err)
		}
		defer stmt.Close()

		args := make([]any, len(t.Schema.Columns))
		for r, row := range t.Rows {
			for i, v := range row {
				args[i] = c.dialect.bind(v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", r, t.Schema.Name, err)
			}
		}
		return nil
	})
}

func (c *Connection) createStatement(s model.Schema) string {
	cols := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		def := quote(col.Name) + " " + c.dialect.types[col.Type]
		if !col.Nullable {
			def += " NOT NULL"
		}
		cols[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(s.Name), strings.Join(cols, ", "))
}

func insertStatement(s model.Schema) string {
	cols := make([]string, len(s.Columns))
	marks := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		cols[i] = quote(col.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(s.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// TableExists reports whether a table is present in the store.
func (c *Connection) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	if err := c.QueryRow(ctx, c.dialect.tableExists, name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// CountRows returns the number of rows in a table.
func (c *Connection) CountRows(ctx context.Context, name string) (int, error) {
	var count int
	if err := c.QueryRow(ctx, "SELECT COUNT(*) FROM "+quote(name)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return count, nil
}

// ReadTable reads every row of a stored table using the column layout in s.
// It returns ErrTableNotFound when the table does not exist.
func (c *Connection) ReadTable(ctx context.Context, s model.Schema) (*model.Table, error) {
	exists, err := c.TableExists(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, s.Name)
	}

	cols := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		cols[i] = quote(col.Name)
	}
	rows, err := c.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quote(s.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name, err)
	}
	defer rows.Close()

	table := &model.Table{Schema: s}
	for rows.Next() {
		raw := make([]any, len(s.Columns))
		dest := make([]any, len(s.Columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.Name, err)
		}

		row := make([]any, len(s.Columns))
		for i, col := range s.Columns {
			v, err := convert(col.Type, raw[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Name, col.Name, err)
			}
			row[i] = v
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name, err)
	}

	return table, nil
}

// ReadDates returns the non-null values of a date column. A missing table
// yields no dates.
func (c *Connection) ReadDates(ctx context.Context, table, column string) ([]time.Time, error) {
	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := c.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", quote(column), quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s.%s: %w", table, column, err)
		}
		v, err := convert(model.Date, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, column, err)
		}
		if v != nil {
			dates = append(dates, v.(time.Time))
		}
	}
	return dates, rows.Err()
}

// convert normalizes a scanned driver value to the model representation.
func convert(typ model.ColumnType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch typ {
	case model.Text:
		switch x := v.(type) {
		case string:
			return x, nil
		default:
			return fmt.Sprint(x), nil
		}
	case model.Real:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case model.Integer:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case model.Date:
		switch x := v.(type) {
		case time.Time:
			return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC), nil
		case string:
			if len(x) > len(dateLayout) {
				x = x[:len(dateLayout)]
			}
			return time.Parse(dateLayout, x)
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, typ)
}
