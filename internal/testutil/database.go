// Package testutil provides shared test fixtures: an in-memory database and
// representative procurement products.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/mtr-normalizer/internal/storage"
)

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database closed at test cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}
	return store
}
