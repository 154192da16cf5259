package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS activity (
					period INTEGER NOT NULL,
					merchant_key TEXT NOT NULL,
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL DEFAULT '',
					txn_count REAL NOT NULL DEFAULT 0,
					total_value REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (period, merchant_key)
				)`,
				`CREATE TABLE IF NOT EXISTS panel_members (
					period INTEGER NOT NULL,
					merchant_key TEXT NOT NULL,
					PRIMARY KEY (period, merchant_key)
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add run audit tables",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					period INTEGER NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					original_size INTEGER NOT NULL,
					survivors INTEGER NOT NULL,
					attrited INTEGER NOT NULL,
					tier1 INTEGER NOT NULL DEFAULT 0,
					tier2 INTEGER NOT NULL DEFAULT 0,
					tier3 INTEGER NOT NULL DEFAULT 0,
					not_found INTEGER NOT NULL DEFAULT 0,
					new_size INTEGER NOT NULL,
					retention_rate REAL NOT NULL,
					replacement_needed BOOLEAN NOT NULL DEFAULT 0
				)`,
				`CREATE TABLE IF NOT EXISTS replacements (
					run_id TEXT NOT NULL,
					attrited_key TEXT NOT NULL,
					replacement_key TEXT NOT NULL,
					tier INTEGER NOT NULL CHECK (tier BETWEEN 1 AND 3),
					category_original TEXT NOT NULL,
					category_replacement TEXT NOT NULL,
					volume_original REAL NOT NULL,
					volume_replacement REAL NOT NULL,
					txn_original REAL NOT NULL DEFAULT 0,
					txn_replacement REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (run_id, attrited_key),
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Optimize activity and audit indexes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_activity_merchant ON activity(merchant_key, period)`,
				`CREATE INDEX IF NOT EXISTS idx_runs_period ON runs(period, created_at)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Record panel snapshots so an empty panel is kept",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS panel_snapshots (
					period INTEGER PRIMARY KEY,
					size INTEGER NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`INSERT OR IGNORE INTO panel_snapshots (period, size)
					SELECT period, COUNT(*) FROM panel_members GROUP BY period`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
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

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
