// Package workbooktest writes small .xlsx fixtures for tests.
package workbooktest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a fixture. Rows start at A1.
type Sheet struct {
	Name string
	Rows [][]any
}

// WriteXLSX writes the sheets, in order, to dir/name and returns the path.
func WriteXLSX(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("failed to create sheet %q: %v", s.Name, err)
		}

		for r, row := range s.Rows {
			cell := fmt.Sprintf("A%d", r+1)
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("failed to write row %d of %q: %v", r+1, s.Name, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}
