// Package pathutil provides centralized path management for the upload files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Default file names inside the uploads directory.
const (
	DefaultUploadsDir   = "./uploads"
	DefaultExpensesFile = "gastos.xls"
	DefaultSalesFile    = "ventas.xlsx"
	DefaultUnitCostFile = "costo_unitario.xlsx"
)

// PathResolver manages paths for the upload files.
type PathResolver struct {
	uploadsDir   string
	expensesFile string
	salesFile    string
	unitCostFile string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// UploadsDir is the directory the source spreadsheets are uploaded to.
	UploadsDir string
	// ExpensesFile is the expense ledger, relative to UploadsDir unless absolute.
	ExpensesFile string
	// SalesFile is the point-of-sale export, relative to UploadsDir unless absolute.
	SalesFile string
	// UnitCostFile is the unit-cost workbook, relative to UploadsDir unless absolute.
	UnitCostFile string
}

// New creates a new PathResolver with the given configuration.
// Empty fields fall back to the Default* values.
func New(config Config) *PathResolver {
	return &PathResolver{
		uploadsDir:   orDefault(config.UploadsDir, DefaultUploadsDir),
		expensesFile: orDefault(config.ExpensesFile, DefaultExpensesFile),
		salesFile:    orDefault(config.SalesFile, DefaultSalesFile),
		unitCostFile: orDefault(config.UnitCostFile, DefaultUnitCostFile),
	}
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// GetUploadsDir returns the uploads directory.
func (p *PathResolver) GetUploadsDir() string {
	return p.uploadsDir
}

// GetExpensesPath returns the expense ledger path.
// Example: uploads/gastos.xls
func (p *PathResolver) GetExpensesPath() string {
	return p.resolve(p.expensesFile)
}

// GetSalesPath returns the sales workbook path.
func (p *PathResolver) GetSalesPath() string {
	return p.resolve(p.salesFile)
}

// GetUnitCostPath returns the unit-cost workbook path.
func (p *PathResolver) GetUnitCostPath() string {
	return p.resolve(p.unitCostFile)
}

func (p *PathResolver) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.uploadsDir, name)
}

// ListUploads returns the spreadsheet files in the uploads directory, sorted
// by name.
func (p *PathResolver) ListUploads() ([]string, error) {
	entries, err := os.ReadDir(p.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads in %s: %w", p.uploadsDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xls", ".xlsx", ".xlsm":
			files = append(files, filepath.Join(p.uploadsDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// IsDir checks if a path is a directory.
func (p *PathResolver) IsDir(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
