package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shunichi-ikebuchi/cafe-finance/pkg/pathutil"
)

// captureStdout returns what fn prints to standard output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	fn()
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(out)
}

func TestPrintUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ventas.xlsx"), nil, 0o600); err != nil {
		t.Fatalf("failed to write upload: %v", err)
	}

	out := captureStdout(t, func() {
		printUploads(pathutil.New(pathutil.Config{UploadsDir: dir}))
	})

	tests := []struct {
		name     string
		expected string
	}{
		{"sales present", "sales      ok"},
		{"expenses missing", "expenses   missing"},
		{"unit costs missing", "unit costs missing"},
		{"count", "1 spreadsheet(s)"},
	}
	for _, tt := range tests {
		if !strings.Contains(out, tt.expected) {
			t.Errorf("printUploads() %s: output %q does not contain %q", tt.name, out, tt.expected)
		}
	}
}

func TestPrintUploadsMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	out := captureStdout(t, func() {
		printUploads(pathutil.New(pathutil.Config{UploadsDir: dir}))
	})
	if !strings.Contains(out, "(not found)") {
		t.Errorf("printUploads() output %q, expected the directory to be reported missing", out)
	}
}
