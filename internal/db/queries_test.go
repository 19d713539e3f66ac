package db

import (
	"testing"
	"time"

	"github.com/j-veylop/claude-token-tray/internal/models"
)

func refresh(month string, tokens uint64, at time.Time) *models.RefreshRecord {
	return &models.RefreshRecord{
		RecordedAt: at,
		CycleID:    "cycle-" + month,
		Month:      month,
		Title:      "t",
		Trigger:    "timeout",
		Tokens:     tokens,
	}
}

func TestRecordRefresh_LogsOnlyChanges(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

	steps := []struct {
		tokens uint64
		logged bool
	}{
		{1000, true},
		{1000, false},
		{2500, true},
		{2500, false},
		{1000, true},
	}

	for i, s := range steps {
		rec := refresh("2026-10", s.tokens, base.Add(time.Duration(i)*time.Minute))
		logged, err := db.RecordRefresh(rec)
		if err != nil {
			t.Fatalf("step %d: RecordRefresh failed: %v", i, err)
		}
		if logged != s.logged {
			t.Errorf("step %d: logged = %v, want %v", i, logged, s.logged)
		}
		if logged && rec.ID == 0 {
			t.Errorf("step %d: expected ID to be set", i)
		}
	}

	records, err := db.RecentRefreshes(0)
	if err != nil {
		t.Fatalf("RecentRefreshes failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	newest := records[0]
	if newest.Tokens != 1000 || newest.Month != "2026-10" || newest.Trigger != "timeout" {
		t.Errorf("Unexpected newest record: %+v", newest)
	}
	if !newest.RecordedAt.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("Expected RecordedAt %v, got %v", base.Add(4*time.Minute), newest.RecordedAt)
	}

	total, err := db.MonthlyTotal("2026-10")
	if err != nil {
		t.Fatalf("MonthlyTotal failed: %v", err)
	}
	if total == nil || total.Tokens != 1000 {
		t.Errorf("Expected monthly total 1000, got %+v", total)
	}
}

func TestRecordRefresh_DefaultsTimestamp(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	rec := refresh("2026-10", 5, time.Time{})
	if _, err := db.RecordRefresh(rec); err != nil {
		t.Fatalf("RecordRefresh failed: %v", err)
	}
	if rec.RecordedAt.IsZero() {
		t.Error("Expected RecordedAt to be filled in")
	}
}

func TestRecentRefreshes_Limit(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		if _, err := db.RecordRefresh(refresh("2026-10", uint64(i+1), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("RecordRefresh failed: %v", err)
		}
	}

	records, err := db.RecentRefreshes(2)
	if err != nil {
		t.Fatalf("RecentRefreshes failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Tokens != 5 || records[1].Tokens != 4 {
		t.Errorf("Expected newest first, got %d then %d", records[0].Tokens, records[1].Tokens)
	}
}

func TestPruneRefreshLog(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	old := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	if _, err := db.RecordRefresh(refresh("2026-01", 10, old)); err != nil {
		t.Fatalf("RecordRefresh failed: %v", err)
	}
	if _, err := db.RecordRefresh(refresh("2026-10", 20, recent)); err != nil {
		t.Fatalf("RecordRefresh failed: %v", err)
	}

	deleted, err := db.PruneRefreshLog(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneRefreshLog failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}

	totals, err := db.MonthlyTotals(0)
	if err != nil {
		t.Fatalf("MonthlyTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Errorf("Monthly totals should survive pruning, got %d", len(totals))
	}
}

func TestParseTimeString(t *testing.T) {
	want := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

	for _, s := range []string{"2026-10-18 09:30:00", "2026-10-18T09:30:00Z", "2026-10-18T09:30:00"} {
		got, ok := parseTimeString(s)
		if !ok || !got.Equal(want) {
			t.Errorf("parseTimeString(%q) = %v, %v", s, got, ok)
		}
	}

	if _, ok := parseTimeString("yesterday"); ok {
		t.Error("Expected parse failure")
	}
}
