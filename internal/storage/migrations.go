package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Run history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					source_file TEXT NOT NULL DEFAULT '',
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					total INTEGER NOT NULL DEFAULT 0,
					successful INTEGER NOT NULL DEFAULT 0,
					rejected INTEGER NOT NULL DEFAULT 0,
					failed INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_runs_started_at ON runs(started_at)`,

				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					run_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					sheet_row INTEGER NOT NULL DEFAULT 0,
					internal_code TEXT NOT NULL DEFAULT '',
					original_name TEXT NOT NULL,
					original_unit TEXT NOT NULL DEFAULT '',
					category_name TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					detection_confidence REAL NOT NULL DEFAULT 0,
					specifications TEXT NOT NULL DEFAULT '{}',
					okpd2_code TEXT NOT NULL DEFAULT '',
					normalized_unit TEXT NOT NULL DEFAULT '',
					confidence REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					comment TEXT NOT NULL DEFAULT '',
					error_message TEXT NOT NULL DEFAULT '',
					processed_at DATETIME,
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_products_run ON products(run_id, position)`,
				`CREATE INDEX idx_products_status ON products(status)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Research cache",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS research_cache (
					original_name TEXT PRIMARY KEY,
					category TEXT NOT NULL,
					manufacturer TEXT NOT NULL DEFAULT '',
					model TEXT NOT NULL DEFAULT '',
					product_type TEXT NOT NULL DEFAULT '',
					specifications TEXT NOT NULL DEFAULT '{}',
					sources TEXT NOT NULL DEFAULT '[]',
					confidence REAL NOT NULL DEFAULT 0,
					use_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_used DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_research_cache_category ON research_cache(category)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}

func (s *SQLiteStorage) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
