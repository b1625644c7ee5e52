package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
)

// LoadRecord represents one table replacement performed by a pipeline run.
type LoadRecord struct {
	RunID          string
	TableName      string
	RowCount       int
	SourceFile     string
	SourceChecksum string
	LoadedAt       time.Time
}

// LoadHistory manages load history and metadata operations.
type LoadHistory struct {
	conn *Connection
	now  func() time.Time
}

// NewLoadHistory creates a new LoadHistory instance.
func NewLoadHistory(conn *Connection) *LoadHistory {
	return &LoadHistory{conn: conn, now: time.Now}
}

// RecordLoad records a table replacement.
func (h *LoadHistory) RecordLoad(ctx context.Context, record LoadRecord) error {
	if record.LoadedAt.IsZero() {
		record.LoadedAt = h.now()
	}

	query := `
		INSERT INTO etl_load_history (run_id, table_name, row_count, source_file, source_checksum, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := h.conn.Exec(ctx, query,
		record.RunID,
		record.TableName,
		record.RowCount,
		record.SourceFile,
		record.SourceChecksum,
		record.LoadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}

	return nil
}

// RecentLoads returns up to limit load records, newest first.
func (h *LoadHistory) RecentLoads(ctx context.Context, limit int) ([]LoadRecord, error) {
	query := `
		SELECT run_id, table_name, row_count, source_file, source_checksum, loaded_at
		FROM etl_load_history
		ORDER BY loaded_at DESC, table_name
		LIMIT ?
	`

	rows, err := h.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get load history: %w", err)
	}
	defer rows.Close()

	var records []LoadRecord
	for rows.Next() {
		var record LoadRecord
		var loadedAt string

		if err := rows.Scan(
			&record.RunID,
			&record.TableName,
			&record.RowCount,
			&record.SourceFile,
			&record.SourceChecksum,
			&loadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan load record: %w", err)
		}

		record.LoadedAt, err = time.Parse(time.RFC3339, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid loaded_at %q: %w", loadedAt, err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// TableStats represents the state of one fact table.
type TableStats struct {
	Name     string
	Exists   bool
	Rows     int
	LastLoad sql.NullString
}

// Stats represents fact store statistics.
type Stats struct {
	Tables   []TableStats
	Runs     int
	LastLoad sql.NullString
}

// GetStats retrieves row counts for every fact table and load totals.
func (h *LoadHistory) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	for _, s := range model.Schemas() {
		ts := TableStats{Name: s.Name}

		exists, err := h.conn.TableExists(ctx, s.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			ts.Exists = true
			if ts.Rows, err = h.conn.CountRows(ctx, s.Name); err != nil {
				return nil, err
			}
		}

		err = h.conn.QueryRow(ctx, `SELECT MAX(loaded_at) FROM etl_load_history WHERE table_name = ?`, s.Name).Scan(&ts.LastLoad)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get last load of %s: %w", s.Name, err)
		}

		stats.Tables = append(stats.Tables, ts)
	}

	// Get run count
	err := h.conn.QueryRow(ctx, `SELECT COUNT(DISTINCT run_id) FROM etl_load_history`).Scan(&stats.Runs)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	// Get last load time
	err = h.conn.QueryRow(ctx, `SELECT MAX(loaded_at) FROM etl_load_history`).Scan(&stats.LastLoad)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last load time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value. A missing key yields "".
func (h *LoadHistory) GetMetadata(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM etl_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *LoadHistory) SetMetadata(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO etl_metadata (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := h.conn.Exec(ctx, query, key, value, h.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
