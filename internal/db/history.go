package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/j-veylop/claude-token-tray/internal/models"
)

// MonthlyTotals returns recorded monthly totals, newest month first. A
// non-positive months returns every month.
func (db *DB) MonthlyTotals(months int) ([]models.MonthlyTotal, error) {
	limit := months
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT month, tokens, title, updated_at
		FROM monthly_totals
		ORDER BY month DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []models.MonthlyTotal
	for rows.Next() {
		total, err := scanMonthlyTotal(rows)
		if err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}

	return totals, rows.Err()
}

// MonthlyTotal returns the recorded total for month, or nil if none exists.
func (db *DB) MonthlyTotal(month string) (*models.MonthlyTotal, error) {
	row := db.QueryRowContext(context.Background(), `
		SELECT month, tokens, title, updated_at
		FROM monthly_totals
		WHERE month = ?
	`, month)

	total, err := scanMonthlyTotal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMonthlyTotal(s scanner) (models.MonthlyTotal, error) {
	var total models.MonthlyTotal
	var tokens int64
	var updatedAt string

	if err := s.Scan(&total.Month, &tokens, &total.Title, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return total, err
		}
		return total, fmt.Errorf("failed to scan monthly total: %w", err)
	}

	total.Tokens = uint64(tokens)
	if t, ok := parseTimeString(updatedAt); ok {
		total.UpdatedAt = t
	}
	return total, nil
}
