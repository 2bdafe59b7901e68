package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustExec runs a statement or fails the test.
func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	if _, err := s.Exec(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q failed: %v", query, err)
	}
}
