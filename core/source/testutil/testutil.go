// Package testutil provides shared helpers for source inspection tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CreateTempGoFile writes content to a fresh temporary Go file and returns
// its path.
func CreateTempGoFile(t *testing.T, content string) string {
	t.Helper()
	return WriteGoFile(t, t.TempDir(), "test.go", content)
}

// WriteGoFile writes content under dir, creating intermediate directories,
// and returns the file path.
func WriteGoFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
	return path
}
