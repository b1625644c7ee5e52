// Package workbook reads spreadsheet exports (.xlsx and legacy .xls) into
// header-addressed tables.
package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a requested sheet is absent from a workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// Workbook is a read-only view over a spreadsheet file.
type Workbook interface {
	// SheetNames returns the sheet names in workbook order.
	SheetNames() []string
	// Rows returns every row of a sheet as cell text.
	Rows(sheet string) ([][]string, error)
	Close() error
}

// Open opens a workbook, choosing the reader from the file extension.
func Open(path string) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
		}
		return &xlsxWorkbook{file: f}, nil
	case ".xls":
		wb, err := xls.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xls file %s: %w", path, err)
		}
		return &xlsWorkbook{book: wb}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// xlsxWorkbook reads Office Open XML workbooks.
type xlsxWorkbook struct {
	file *excelize.File
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) Rows(sheet string) ([][]string, error) {
	if !contains(w.SheetNames(), sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	// Raw values keep typed dates as serials instead of month-first display text.
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}

// xlsWorkbook reads BIFF8 (.xls) workbooks.
type xlsWorkbook struct {
	book xls.Workbook
}

func (w *xlsWorkbook) SheetNames() []string {
	names := make([]string, 0, w.book.GetNumberSheets())
	for i := 0; i < w.book.GetNumberSheets(); i++ {
		sheet, err := w.book.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		names = append(names, sheet.GetName())
	}
	return names
}

func (w *xlsWorkbook) Rows(name string) ([][]string, error) {
	for i := 0; i < w.book.GetNumberSheets(); i++ {
		sheet, err := w.book.GetSheet(i)
		if err != nil || sheet == nil || sheet.GetName() != name {
			continue
		}

		var rows [][]string
		for r := 0; r < sheet.GetNumberRows(); r++ {
			row, err := sheet.GetRow(r)
			if err != nil || row == nil {
				// Keep positions stable so header offsets still line up.
				rows = append(rows, nil)
				continue
			}

			var cells []string
			for _, col := range row.GetCols() {
				if col == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, col.GetString())
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func (w *xlsWorkbook) Close() error {
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
