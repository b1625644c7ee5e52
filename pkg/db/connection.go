package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Connection manages a fact store connection.
type Connection struct {
	db      *sql.DB
	target  string
	dialect *dialect
}

// Open opens the store named by databaseURL. postgres:// and postgresql://
// URLs use Postgres; sqlite://path, file:path or a bare path use SQLite.
// The metadata schema is created when missing.
func Open(databaseURL string) (*Connection, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	d, dsn, target, err := resolve(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn := &Connection{
		db:      db,
		target:  target,
		dialect: d,
	}

	if err := InitializeSchema(conn); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return conn, nil
}

// resolve picks the dialect and driver DSN for a database URL. target is a
// printable form without credentials.
func resolve(databaseURL string) (d *dialect, dsn, target string, err error) {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgresDialect, databaseURL, redact(databaseURL), nil
	}

	path := databaseURL
	for _, prefix := range []string{"sqlite3://", "sqlite://", "file:"} {
		if strings.HasPrefix(lower, prefix) {
			path = databaseURL[len(prefix):]
			break
		}
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return nil, "", "", fmt.Errorf("invalid sqlite database URL: %s", databaseURL)
	}

	// Ensure database file's parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, "", "", fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connection string enables foreign keys and WAL mode
	dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	return sqliteDialect, dsn, path, nil
}

// redact hides the password of a URL-style DSN.
func redact(databaseURL string) string {
	scheme := strings.Index(databaseURL, "://")
	at := strings.LastIndex(databaseURL, "@")
	if scheme < 0 || at < scheme {
		return databaseURL
	}
	creds := databaseURL[scheme+3 : at]
	if i := strings.IndexByte(creds, ':'); i >= 0 {
		creds = creds[:i] + ":***"
	}
	return databaseURL[:scheme+3] + creds + databaseURL[at:]
}

// Close closes the database connection.
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB instance.
// Use this for custom queries not covered by other methods.
func (c *Connection) GetDB() *sql.DB {
	return c.db
}

// Target returns the database path, or the URL with its password hidden.
func (c *Connection) Target() string {
	return c.target
}

// Dialect returns "sqlite" or "postgres".
func (c *Connection) Dialect() string {
	return c.dialect.name
}

// Query executes a query that returns rows. Placeholders are written as '?'.
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, c.dialect.rebind(query), args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, c.dialect.rebind(query), args...)
}

// Exec executes a query that doesn't return rows.
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, c.dialect.rebind(query), args...)
}

// Transaction executes a function within a transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (c *Connection) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
