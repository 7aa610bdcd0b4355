// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/store"
)

// NewTestStore opens an in-memory cache with the schema applied and closes
// it when the test ends.
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

// SeedWorkItems opens a test store holding items as the cached board of
// ownerID.
func SeedWorkItems(t *testing.T, ownerID string, items ...model.WorkItem) *store.SQLiteStore {
	t.Helper()

	s := NewTestStore(t)
	if err := s.ReplaceWorkItems(context.Background(), ownerID, items); err != nil {
		t.Fatalf("seeding work items: %v", err)
	}
	return s
}
