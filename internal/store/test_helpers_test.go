package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/qrelax/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createLecturerStore creates a store loaded with the lecturer fixture.
func createLecturerStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.InsertTriples(context.Background(), testutil.LecturerTriples()); err != nil {
		t.Fatalf("InsertTriples() failed: %v", err)
	}
	return s
}
