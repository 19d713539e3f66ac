package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-token-tray/internal/app"
	"github.com/j-veylop/claude-token-tray/internal/config"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services"
)

func newManager(t *testing.T, historyEnabled bool, threshold uint64) *services.Manager {
	t.Helper()

	tmpDir := t.TempDir()
	statsPath := filepath.Join(tmpDir, "stats-cache.json")
	if err := os.WriteFile(statsPath, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		StatsPath:       statsPath,
		DatabasePath:    filepath.Join(tmpDir, "test.db"),
		RefreshInterval: time.Hour,
		HistoryEnabled:  historyEnabled,
		NotifyThreshold: threshold,
	}
	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func seed(t *testing.T, mgr *services.Manager, records ...models.RefreshRecord) {
	t.Helper()
	for i := range records {
		if _, err := mgr.Database().RecordRefresh(&records[i]); err != nil {
			t.Fatalf("Failed to seed DB: %v", err)
		}
	}
}

func sampleRecords() []models.RefreshRecord {
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return []models.RefreshRecord{
		{RecordedAt: base.AddDate(0, -1, 0), CycleID: "a", Month: "2026-09", Tokens: 2_000_000, Title: "2.0M", Trigger: "timeout"},
		{RecordedAt: base, CycleID: "b", Month: "2026-10", Tokens: 1_000_000, Title: "1.0M", Trigger: "initial"},
		{RecordedAt: base.Add(time.Hour), CycleID: "c", Month: "2026-10", Tokens: 1_500_000, Title: "1.5M", Trigger: "file-change"},
	}
}

// load runs the model's load command and feeds the result back.
func load(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	m.Update(cmd())
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Range() != models.HistoryRange6Months {
		t.Errorf("Range = %v, want 6 Months", m.Range())
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
	m.SetSize(80, 20)
	if !strings.Contains(m.View(), "Loading history data") {
		t.Error("view should show loading before the first load")
	}
}

func TestModel_NoServices(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 20)
	load(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "Services not initialized") {
		t.Errorf("view should show the error, got %q", view)
	}
	if strings.Contains(view, "HISTORY_ENABLED") {
		t.Error("no database hint without a manager")
	}
}

func TestModel_HistoryDisabled(t *testing.T) {
	mgr := newManager(t, false, 0)
	m := New(app.NewState(), mgr)
	m.SetSize(100, 30)

	cmd := m.Init()
	msg := cmd()
	if _, ok := msg.(historyErrorMsg); !ok {
		t.Fatalf("Init produced %#v, want historyErrorMsg", msg)
	}

	_, notify := m.Update(msg)
	if notify == nil {
		t.Fatal("first error should raise a notification")
	}
	if n, ok := notify().(app.AddNotificationMsg); !ok || n.Type != app.NotificationError {
		t.Errorf("notification = %#v", n)
	}

	if _, again := m.Update(msg); again != nil {
		t.Error("repeated error should not notify again")
	}

	view := m.View()
	if !strings.Contains(view, "history database not enabled") || !strings.Contains(view, "HISTORY_ENABLED") {
		t.Errorf("view should explain how to enable history, got %q", view)
	}
}

func TestModel_WithData(t *testing.T) {
	mgr := newManager(t, true, 0)
	seed(t, mgr, sampleRecords()...)

	m := New(app.NewState(), mgr)
	m.SetSize(120, 80)
	load(t, m, m.Init())

	if len(m.totals) != 2 {
		t.Fatalf("totals = %d, want 2", len(m.totals))
	}
	if len(m.refreshes) != 3 {
		t.Fatalf("refreshes = %d, want 3", len(m.refreshes))
	}

	view := m.View()
	for _, want := range []string{
		"Monthly totals",
		"2026-09",
		"2026-10",
		"1.5M",
		"+500.0K",
		"file-change",
		"Recorded: 2026-09 → 2026-10 (2 months)",
		"Total 3.5M",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_WithThreshold(t *testing.T) {
	mgr := newManager(t, true, 2_000_000)
	seed(t, mgr, sampleRecords()...)

	m := New(app.NewState(), mgr)
	m.SetSize(120, 80)
	load(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "2.0M (100%)") || !strings.Contains(view, "1.5M (75%)") {
		t.Error("monthly rows should show usage against the threshold")
	}
}

func TestModel_DailyChart(t *testing.T) {
	state := app.NewState()
	state.SetStats(&models.StatsCache{
		DailyModelTokens: []models.DailyModelTokens{
			{Date: "2026-10-01", TokensByModel: map[string]uint64{"m": 1000}},
			{Date: "2026-10-02", TokensByModel: map[string]uint64{"m": 4000}},
			{Date: "2026-09-30", TokensByModel: map[string]uint64{"m": 9000}},
		},
	}, models.MonthSummary{Month: "2026-10", Tokens: 5000}, nil)

	m := New(state, newManager(t, true, 0))
	m.SetSize(120, 80)
	load(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "Daily tokens, 2026-10") {
		t.Error("chart title should name the month")
	}
	if !strings.Contains(view, "2 days, 2026-10-01 to 2026-10-02") {
		t.Error("chart caption should cover only this month")
	}
	if !strings.Contains(view, "Peak: ") || !strings.Contains(view, "4.0K tokens") {
		t.Error("chart should show the peak day")
	}
}

func TestModel_ToggleRange(t *testing.T) {
	mgr := newManager(t, true, 0)
	seed(t, mgr, sampleRecords()...)

	m := New(app.NewState(), mgr)
	load(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.Range() != models.HistoryRange12Months {
		t.Errorf("Range = %v, want 12 Months", m.Range())
	}
	load(t, m, cmd)
	if m.loading {
		t.Error("loading should clear after the reload")
	}
}

func TestModel_StaleLoadIgnored(t *testing.T) {
	mgr := newManager(t, true, 0)
	seed(t, mgr, sampleRecords()...)

	m := New(app.NewState(), mgr)
	stale := loadHistoryCmd(mgr, models.HistoryRange3Months)()

	m.Update(stale)
	if m.loaded {
		t.Error("a load for another range should be ignored")
	}
}

func TestModel_Reloads(t *testing.T) {
	mgr := newManager(t, true, 0)
	m := New(app.NewState(), mgr)
	load(t, m, m.Init())

	msgs := []tea.Msg{
		app.TabSwitchMsg{Tab: app.TabHistory},
		app.ServiceEventMsg{Event: services.HistoryRecordedEvent{}},
		app.ManualRefreshDoneMsg{Title: "1.0K"},
	}
	for _, msg := range msgs {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("%T should trigger a reload", msg)
			continue
		}
		load(t, m, cmd)
	}

	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabInfo}); cmd != nil {
		t.Error("switching to another tab should not reload")
	}
	if _, cmd := m.Update(app.ServiceEventMsg{Event: services.StatsUpdatedEvent{}}); cmd != nil {
		t.Error("stats updates without a history change should not reload")
	}

	m.loading = true
	if _, cmd := m.Update(app.ManualRefreshDoneMsg{}); cmd != nil {
		t.Error("no reload while a load is running")
	}
}

func TestModel_EmptyHistory(t *testing.T) {
	m := New(app.NewState(), newManager(t, true, 0))
	m.SetSize(100, 40)
	load(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "No months recorded yet") {
		t.Error("view should explain the empty history")
	}
	if !strings.Contains(view, "No daily data for this month") {
		t.Error("view should explain the missing daily data")
	}
}

func TestFormatDelta(t *testing.T) {
	if got := formatDelta(1500, 1000); got != "+500" {
		t.Errorf("formatDelta up = %q", got)
	}
	if got := formatDelta(1000, 1500); got != "-500" {
		t.Errorf("formatDelta down = %q", got)
	}
}

func TestPreviousInMonth(t *testing.T) {
	older := []models.RefreshRecord{{Month: "2026-09", Tokens: 1}, {Month: "2026-10", Tokens: 2}}
	if rec, ok := previousInMonth(older, "2026-10"); !ok || rec.Tokens != 2 {
		t.Errorf("previousInMonth = %#v, %v", rec, ok)
	}
	if _, ok := previousInMonth(older, "2026-08"); ok {
		t.Error("no record expected for 2026-08")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) != 1 {
		t.Error("ShortHelp should list the range toggle")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
