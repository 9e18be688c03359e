package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/storage/sqlite"
)

var may10 = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

// setupTestStore creates a store on a temporary SQLite file.
func setupTestStore(t *testing.T) (*sqlite.SQLiteStore, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Remove(tmpFile.Name())
		os.Remove(tmpFile.Name() + "-wal")
		os.Remove(tmpFile.Name() + "-shm")
	}
	return store, cleanup
}

// addPeople creates people whose id equals their display name.
func addPeople(t *testing.T, store *sqlite.SQLiteStore, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := store.CreatePerson(context.Background(), &models.Person{ID: name, DisplayName: name}); err != nil {
			t.Fatalf("failed to create person %s: %v", name, err)
		}
	}
}
