package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/model"
)

// CopyResult reports what Copy did for one table.
type CopyResult struct {
	Table   string
	Rows    int
	Skipped bool
}

// Copy replaces each table of schemas in dst with its contents in src.
// Tables absent from src are skipped.
func Copy(ctx context.Context, src, dst *Connection, schemas []model.Schema) ([]CopyResult, error) {
	results := make([]CopyResult, 0, len(schemas))
	for _, s := range schemas {
		table, err := src.ReadTable(ctx, s)
		if errors.Is(err, ErrTableNotFound) {
			results = append(results, CopyResult{Table: s.Name, Skipped: true})
			continue
		}
		if err != nil {
			return results, fmt.Errorf("failed to read %s from source: %w", s.Name, err)
		}

		if err := dst.ReplaceTable(ctx, table); err != nil {
			return results, fmt.Errorf("failed to write %s to destination: %w", s.Name, err)
		}
		results = append(results, CopyResult{Table: s.Name, Rows: table.Len()})
	}
	return results, nil
}
