package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ceprince/packing-list/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedPiece marshals v and saves it as one course state piece, as if a
// previous session had persisted it.
func SeedPiece(t *testing.T, s store.StateStore, courseID, piece string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling %s seed: %v", piece, err)
	}
	if err := s.SavePiece(context.Background(), courseID, piece, data); err != nil {
		t.Fatalf("seeding %s: %v", piece, err)
	}
}
