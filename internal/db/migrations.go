package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; the index plus one is the schema version
// stored in PRAGMA user_version.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS monthly_totals (
		month TEXT PRIMARY KEY,
		tokens INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS refresh_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT NOT NULL,
		recorded_at DATETIME NOT NULL,
		month TEXT NOT NULL,
		tokens INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL,
		trigger_kind TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_refresh_log_month ON refresh_log(month, id);
	CREATE INDEX IF NOT EXISTS idx_refresh_log_recorded ON refresh_log(recorded_at);
	`,
}

// SchemaVersion returns the applied schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}

		if _, err := tx.ExecContext(context.Background(), migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}

		if _, err := tx.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
