// Package testutil provides deterministic fixtures for Cairn tests:
// a logical clock for reproducible audit timestamps and a throwaway
// SQLite store.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/cairn/internal/store"
)

// OpenStore opens a fresh SQLite store under t.TempDir and closes it
// when the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cairn.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}
