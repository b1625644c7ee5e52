// Package db persists the fact model and the pipeline's load history in a
// relational store (SQLite or Postgres).
package db

import (
	"context"
	"fmt"
)

// Schema defines the SQL statements to create the pipeline's own tables.
// Fact tables are created by ReplaceTable from their model schemas.
const Schema = `
-- Load history table
-- One row per table replaced by a pipeline run
CREATE TABLE IF NOT EXISTS etl_load_history (
    run_id TEXT NOT NULL,
    table_name TEXT NOT NULL,
    row_count INTEGER NOT NULL,
    source_file TEXT NOT NULL,
    source_checksum TEXT NOT NULL,
    loaded_at TEXT NOT NULL            -- RFC 3339, UTC
);

CREATE INDEX IF NOT EXISTS idx_etl_load_history_table
    ON etl_load_history(table_name);

CREATE INDEX IF NOT EXISTS idx_etl_load_history_loaded
    ON etl_load_history(loaded_at);

-- Metadata table
-- Stores key-value state such as source file checksums
CREATE TABLE IF NOT EXISTS etl_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// InitializeSchema initializes the database schema.
// It creates all tables and indexes if they don't exist.
func InitializeSchema(conn *Connection) error {
	_, err := conn.Exec(context.Background(), Schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
