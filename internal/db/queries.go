package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/claude-token-tray/internal/models"
)

var timeFormats = []string{
	timeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RecordRefresh stores the outcome of a refresh cycle. The month's total is
// always upserted; a refresh_log row is only added when the token count
// differs from the last one logged for that month. It reports whether a log
// row was written, in which case rec.ID is set.
func (db *DB) RecordRefresh(rec *models.RefreshRecord) (bool, error) {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	recordedAt := rec.RecordedAt.UTC().Format(timeLayout)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO monthly_totals (month, tokens, title, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			tokens = excluded.tokens,
			title = excluded.title,
			updated_at = excluded.updated_at
	`, rec.Month, int64(rec.Tokens), rec.Title, recordedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert monthly total: %w", err)
	}

	var lastTokens int64
	err = tx.QueryRowContext(ctx, `
		SELECT tokens FROM refresh_log
		WHERE month = ?
		ORDER BY id DESC
		LIMIT 1
	`, rec.Month).Scan(&lastTokens)

	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("failed to query last refresh: %w", err)
	case uint64(lastTokens) == rec.Tokens:
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit refresh: %w", err)
		}
		return false, nil
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO refresh_log (cycle_id, recorded_at, month, tokens, title, trigger_kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.CycleID, recordedAt, rec.Month, int64(rec.Tokens), rec.Title, rec.Trigger)
	if err != nil {
		return false, fmt.Errorf("failed to insert refresh record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit refresh: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}

// RecentRefreshes returns the most recent logged refreshes, newest first.
func (db *DB) RecentRefreshes(limit int) ([]models.RefreshRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT id, cycle_id, recorded_at, month, tokens, title, trigger_kind
		FROM refresh_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent refreshes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.RefreshRecord
	for rows.Next() {
		var rec models.RefreshRecord
		var recordedAt string
		var tokens int64

		if err := rows.Scan(
			&rec.ID,
			&rec.CycleID,
			&recordedAt,
			&rec.Month,
			&tokens,
			&rec.Title,
			&rec.Trigger,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refresh record: %w", err)
		}

		rec.Tokens = uint64(tokens)
		if t, ok := parseTimeString(recordedAt); ok {
			rec.RecordedAt = t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PruneRefreshLog deletes log rows recorded before cutoff. Monthly totals
// are kept.
func (db *DB) PruneRefreshLog(cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM refresh_log WHERE recorded_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune refresh log: %w", err)
	}
	return result.RowsAffected()
}
