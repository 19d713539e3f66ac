package services

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/claude-token-tray/internal/config"
	"github.com/j-veylop/claude-token-tray/internal/display"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services/watcher"
	"github.com/j-veylop/claude-token-tray/internal/stats"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func statsJSON(octoberTokens int) string {
	return `{
	"version": 2,
	"lastComputedDate": "2026-10-17",
	"dailyActivity": [
		{"date": "2026-10-17", "messageCount": 12, "sessionCount": 2, "toolCallCount": 30}
	],
	"dailyModelTokens": [
		{"date": "2026-09-30", "tokensByModel": {"claude-opus-4-5": 9999}},
		{"date": "2026-10-17", "tokensByModel": {"claude-opus-4-5": ` + strconv.Itoa(octoberTokens) + `}}
	],
	"modelUsage": {},
	"totalSessions": 5,
	"totalMessages": 42
}`
}

type testEnv struct {
	dir       string
	statsPath string
	cfg       *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	statsPath := filepath.Join(dir, ".claude", "stats-cache.json")
	if err := os.MkdirAll(filepath.Dir(statsPath), 0o750); err != nil {
		t.Fatalf("failed to create stats dir: %v", err)
	}

	return &testEnv{
		dir:       dir,
		statsPath: statsPath,
		cfg: &config.Config{
			StatsPath:          statsPath,
			DatabasePath:       filepath.Join(dir, "history.db"),
			RefreshInterval:    time.Hour,
			PollWithoutWatcher: true,
			HistoryEnabled:     true,
		},
	}
}

func (e *testEnv) writeStats(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.statsPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write stats file: %v", err)
	}
}

func newTestManager(t *testing.T, env *testEnv, sinks ...display.Sink) *Manager {
	t.Helper()

	mgr, err := NewManager(env.cfg, sinks...)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mgr.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		if err := mgr.Close(); err != nil {
			t.Logf("Close failed: %v", err)
		}
	})
	return mgr
}

func waitForEvent(t *testing.T, ch <-chan ServiceEvent, match func(ServiceEvent) bool) ServiceEvent {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed")
			}
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func isStatsUpdated(ev ServiceEvent) bool {
	_, ok := ev.(StatsUpdatedEvent)
	return ok
}

func TestNewManager(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)

	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Title() != display.DefaultTitle {
		t.Errorf("Title() = %q, want %q", mgr.Title(), display.DefaultTitle)
	}
	if mgr.StatsPath() != env.statsPath {
		t.Errorf("StatsPath() = %q, want %q", mgr.StatsPath(), env.statsPath)
	}
	if _, ok := mgr.Summary(); ok {
		t.Error("Summary() should be empty before the first refresh")
	}
}

func TestNewManager_MissingStatsPath(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.StatsPath = ""

	_, err := NewManager(env.cfg)
	var ioErr *stats.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("NewManager error = %v, want *stats.IoError", err)
	}
}

func TestNewManager_HistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.HistoryEnabled = false
	mgr := newTestManager(t, env)

	if mgr.Database() != nil {
		t.Error("Database should be nil when history is disabled")
	}
	if _, err := mgr.History(6); err == nil {
		t.Error("History() should fail without a database")
	}
	if _, err := mgr.RecentRefreshes(10); err == nil {
		t.Error("RecentRefreshes() should fail without a database")
	}

	env.writeStats(t, statsJSON(1500))
	mgr.RefreshNow()
	if mgr.Title() != "1.5K" {
		t.Errorf("Title() = %q, want 1.5K", mgr.Title())
	}
}

func TestRefresh_UpdatesIndicatorAndHistory(t *testing.T) {
	env := newTestEnv(t)
	extra := &recordingSink{}
	mgr := newTestManager(t, env, extra)
	events, _ := mgr.Subscribe()

	env.writeStats(t, statsJSON(8000))
	mgr.RefreshNow()

	if got := mgr.Title(); got != "8.0K" {
		t.Errorf("Title() = %q, want 8.0K", got)
	}
	if len(extra.texts) != 1 || extra.texts[0] != "8.0K" {
		t.Errorf("extra sink texts = %v, want [8.0K]", extra.texts)
	}

	summary, ok := mgr.Summary()
	if !ok || summary.Month != "2026-10" || summary.Tokens != 8000 || summary.Messages != 12 {
		t.Errorf("Summary() = %+v, %v", summary, ok)
	}

	waitForEvent(t, events, isStatsUpdated)

	ev := waitForEvent(t, events, func(ev ServiceEvent) bool {
		_, ok := ev.(HistoryRecordedEvent)
		return ok
	}).(HistoryRecordedEvent)
	if ev.Record.Trigger != "manual" || ev.Record.Tokens != 8000 || ev.Record.CycleID == "" {
		t.Errorf("unexpected record %+v", ev.Record)
	}

	totals, err := mgr.History(0)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(totals) != 1 || totals[0].Title != "8.0K" {
		t.Errorf("History() = %+v", totals)
	}
}

func TestRefresh_UnchangedTotalIsNotLoggedTwice(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)

	env.writeStats(t, statsJSON(2000))
	mgr.RefreshNow()
	mgr.Refresh(watcher.TriggerTimeout)

	records, err := mgr.RecentRefreshes(10)
	if err != nil {
		t.Fatalf("RecentRefreshes() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("RecentRefreshes() returned %d records, want 1", len(records))
	}
}

func TestRefresh_FailureKeepsPreviousTitle(t *testing.T) {
	env := newTestEnv(t)
	extra := &recordingSink{}
	mgr := newTestManager(t, env, extra)

	// Missing file: title stays at the placeholder.
	mgr.RefreshNow()
	if got := mgr.Title(); got != display.DefaultTitle {
		t.Errorf("Title() = %q, want %q", got, display.DefaultTitle)
	}

	env.writeStats(t, statsJSON(3_700_000))
	mgr.RefreshNow()
	if got := mgr.Title(); got != "3.7M" {
		t.Fatalf("Title() = %q, want 3.7M", got)
	}

	env.writeStats(t, `{"version": 2, "dailyActivity": [`)
	mgr.RefreshNow()
	if got := mgr.Title(); got != "3.7M" {
		t.Errorf("Title() after torn write = %q, want 3.7M", got)
	}
	if extra.notified != 1 {
		t.Errorf("NotifyRefresh called %d times, want 1", extra.notified)
	}
}

func TestRefresh_Projection(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.NotifyThreshold = 10_000
	mgr := newTestManager(t, env)

	if mgr.Projection() != nil {
		t.Error("Projection() should be nil before the first refresh")
	}

	env.writeStats(t, statsJSON(7000))
	mgr.RefreshNow()

	proj := mgr.Projection()
	if proj == nil {
		t.Fatal("Projection() returned nil after a refresh")
	}
	if proj.Month != "2026-10" || proj.CurrentTokens != 7000 {
		t.Errorf("projection month/tokens = %s/%d", proj.Month, proj.CurrentTokens)
	}
	if proj.DaysElapsed != 17.5 {
		t.Errorf("DaysElapsed = %v, want 17.5", proj.DaysElapsed)
	}
	if proj.ActiveDays != 1 {
		t.Errorf("ActiveDays = %d, want 1", proj.ActiveDays)
	}
	if !proj.WillExceed {
		t.Error("7000 tokens at half month should project past 10000")
	}
	if proj.Historical == nil || proj.Historical.RecordedMonths != 0 {
		t.Errorf("Historical = %+v, want empty context", proj.Historical)
	}
}

func TestProject_HistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.HistoryEnabled = false
	mgr := newTestManager(t, env)

	env.writeStats(t, statsJSON(1000))
	cache, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}

	summary := models.MonthSummary{Month: "2026-10", Tokens: 1000}
	proj, err := mgr.Project(cache, summary)
	if err != nil {
		t.Fatalf("Project() failed: %v", err)
	}
	if proj.Historical != nil {
		t.Error("Historical should be nil with history disabled")
	}
	if proj.Status != models.ProjectionUnknown {
		t.Errorf("Status = %s, want UNKNOWN without a threshold", proj.Status)
	}
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)

	_, err := mgr.GetStats()
	if err == nil || !strings.Contains(err.Error(), env.statsPath) {
		t.Errorf("GetStats() error = %v, want message naming %s", err, env.statsPath)
	}

	env.writeStats(t, statsJSON(10))
	s, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if s.TotalMessages != 42 {
		t.Errorf("TotalMessages = %d, want 42", s.TotalMessages)
	}
}

func TestUpdateIndicatorTitle(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)

	if err := mgr.UpdateIndicatorTitle("paused"); err != nil {
		t.Fatalf("UpdateIndicatorTitle() failed: %v", err)
	}
	if mgr.Title() != "paused" {
		t.Errorf("Title() = %q, want paused", mgr.Title())
	}
}

func TestStart_RefreshesOnFileChange(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)
	events, _ := mgr.Subscribe()

	if err := mgr.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !mgr.Watching() {
		t.Fatal("Watching() = false after Start()")
	}

	env.writeStats(t, statsJSON(1_000_000))
	waitForEvent(t, events, isStatsUpdated)

	deadline := time.Now().Add(5 * time.Second)
	for mgr.Title() != "1.0M" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := mgr.Title(); got != "1.0M" {
		t.Errorf("Title() = %q, want 1.0M", got)
	}
}

func TestStart_WatchFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.StatsPath = filepath.Join(env.dir, "missing", "stats-cache.json")
	mgr := newTestManager(t, env)

	if err := mgr.Start(); err != nil {
		t.Fatalf("Start() should swallow watch setup errors, got %v", err)
	}
	if mgr.Watching() {
		t.Error("Watching() should be false")
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	env := newTestEnv(t)
	mgr := newTestManager(t, env)

	ch, cmd := mgr.Subscribe()
	if cmd == nil {
		t.Fatal("Subscribe() returned nil command")
	}

	mgr.broadcast(StatsUpdatedEvent{})
	if msg := cmd(); msg != (StatsUpdatedEvent{}) {
		t.Errorf("cmd() = %#v, want StatsUpdatedEvent", msg)
	}

	mgr.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestStatsUpdatedEvent_Name(t *testing.T) {
	if got := (StatsUpdatedEvent{}).Name(); got != "stats-updated" {
		t.Errorf("Name() = %q, want stats-updated", got)
	}
}

func TestClose_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	mgr, err := NewManager(env.cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	ch, _ := mgr.Subscribe()

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}

	select {
	case <-mgr.Done():
	case <-time.After(time.Second):
		t.Error("Done() not closed after Close()")
	}
}

type recordingSink struct {
	texts    []string
	notified int
}

func (r *recordingSink) SetIndicatorText(text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSink) NotifyRefresh() {
	r.notified++
}
