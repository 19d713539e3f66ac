// Package services provides service orchestration for the agent and the TUI.
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/j-veylop/claude-token-tray/internal/config"
	"github.com/j-veylop/claude-token-tray/internal/db"
	"github.com/j-veylop/claude-token-tray/internal/display"
	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services/projection"
	"github.com/j-veylop/claude-token-tray/internal/services/watcher"
	"github.com/j-veylop/claude-token-tray/internal/stats"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

// refreshLogRetention bounds how long individual refresh records are kept.
// Monthly totals are never pruned.
const refreshLogRetention = 180 * 24 * time.Hour

type (
	// StatsUpdatedEvent is emitted after every refresh cycle that read the
	// stats file. It carries no data; listeners call GetStats or Summary.
	StatsUpdatedEvent struct{}

	// HistoryRecordedEvent is emitted when a refresh changed a monthly total
	// and was written to the history database.
	HistoryRecordedEvent struct {
		Record models.RefreshRecord
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StatsUpdatedEvent) isServiceEvent()    {}
func (HistoryRecordedEvent) isServiceEvent() {}

// Name returns the event name seen by UI listeners.
func (StatsUpdatedEvent) Name() string { return display.EventStatsUpdated }

// Manager owns the refresh loop and everything a refresh cycle writes to.
type Manager struct {
	mu          sync.RWMutex
	refreshMu   sync.Mutex
	cfg         *config.Config
	statsPath   string
	indicator   *display.Indicator
	sink        display.Sink
	notifier    *display.Notifier
	database    *db.DB
	watcher     *watcher.Service
	projection  *projection.Service
	stopChan    chan struct{}
	closeOnce   sync.Once
	subscribers []chan<- ServiceEvent
	summary     *models.MonthSummary
	now         func() time.Time
}

// NewManager creates a manager for cfg. Extra sinks receive every title
// alongside the built-in indicator. It fails when the stats file location
// is unknown, which happens when the home directory cannot be resolved.
func NewManager(cfg *config.Config, sinks ...display.Sink) (*Manager, error) {
	if cfg.StatsPath == "" {
		return nil, &stats.IoError{Err: errors.New("home directory could not be resolved and STATS_PATH is unset")}
	}

	m := &Manager{
		cfg:       cfg,
		statsPath: cfg.StatsPath,
		indicator: display.NewIndicator(),
		notifier:  display.NewNotifier(cfg.NotifyThreshold),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
	m.sink = append(display.Fanout{m.indicator}, sinks...)

	if cfg.HistoryEnabled {
		var err error
		m.database, err = db.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	m.projection = projection.New(m.database, cfg.NotifyThreshold)

	svc, err := watcher.New(watcher.Config{
		Path:               cfg.StatsPath,
		Interval:           cfg.RefreshInterval,
		PollWithoutWatcher: cfg.PollWithoutWatcher,
		InitialRefresh:     true,
	}, m.Refresh)
	if err != nil {
		m.closeDatabase()
		return nil, err
	}
	m.watcher = svc

	go m.routeEvents(m.indicator.Subscribe())

	return m, nil
}

// Start prunes old history and launches the refresh loop. A watch setup
// failure is logged and does not fail Start.
func (m *Manager) Start() error {
	if m.database != nil {
		cutoff := m.now().Add(-refreshLogRetention)
		if n, err := m.database.PruneRefreshLog(cutoff); err != nil {
			logger.Warn("failed to prune refresh log", "error", err)
		} else if n > 0 {
			logger.Debug("pruned refresh log", "rows", n)
		}
	}

	err := m.watcher.Start()

	var setupErr *watcher.WatchSetupError
	if errors.As(err, &setupErr) {
		logger.Warn("stats watcher unavailable",
			"dir", setupErr.Dir,
			"error", setupErr.Err,
			"polling", m.cfg.PollWithoutWatcher,
		)
		return nil
	}
	return err
}

// Refresh runs one refresh cycle. Read and parse failures leave the
// indicator untouched and are only logged at debug level.
func (m *Manager) Refresh(trigger watcher.Trigger) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	cycleID := uuid.NewString()

	snapshot, err := stats.ReadFromPath(m.statsPath)
	if err != nil {
		logger.Debug("refresh skipped",
			"cycle", cycleID,
			"trigger", trigger.String(),
			"error", err,
		)
		return
	}

	summary := usage.Summarize(snapshot, m.now().Unix())

	m.mu.Lock()
	m.summary = &summary
	m.mu.Unlock()

	_ = m.sink.SetIndicatorText(summary.Title)
	m.sink.NotifyRefresh()
	m.notifier.Observe(summary)

	m.record(cycleID, trigger, summary)

	if _, err := m.Project(snapshot, summary); err != nil {
		logger.Debug("projection skipped", "cycle", cycleID, "error", err)
	}
}

// RefreshNow triggers a manual refresh on the caller's goroutine.
func (m *Manager) RefreshNow() {
	m.Refresh(watcher.TriggerManual)
}

func (m *Manager) record(cycleID string, trigger watcher.Trigger, summary models.MonthSummary) {
	if m.database == nil {
		return
	}

	rec := models.RefreshRecord{
		RecordedAt: m.now(),
		CycleID:    cycleID,
		Month:      summary.Month,
		Title:      summary.Title,
		Trigger:    trigger.String(),
		Tokens:     summary.Tokens,
	}

	logged, err := m.database.RecordRefresh(&rec)
	if err != nil {
		logger.Warn("failed to record refresh", "cycle", cycleID, "error", err)
		return
	}
	if logged {
		m.broadcast(HistoryRecordedEvent{Record: rec})
	}
}

// routeEvents turns indicator notifications into service events.
func (m *Manager) routeEvents(events <-chan string) {
	for {
		select {
		case name, ok := <-events:
			if !ok {
				return
			}
			if name == display.EventStatsUpdated {
				m.broadcast(StatsUpdatedEvent{})
			}

		case <-m.stopChan:
			return
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// GetStats reads a fresh snapshot of the stats file.
func (m *Manager) GetStats() (*models.StatsCache, error) {
	return stats.ReadFromPath(m.statsPath)
}

// UpdateIndicatorTitle sets the indicator text directly.
func (m *Manager) UpdateIndicatorTitle(text string) error {
	return m.indicator.SetIndicatorText(text)
}

// Title returns the current indicator text.
func (m *Manager) Title() string {
	return m.indicator.Title()
}

// Summary returns the last computed month summary, if any refresh succeeded.
func (m *Manager) Summary() (models.MonthSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.summary == nil {
		return models.MonthSummary{}, false
	}
	return *m.summary, true
}

// History returns recorded monthly totals, newest first.
func (m *Manager) History(months int) ([]models.MonthlyTotal, error) {
	if m.database == nil {
		return nil, fmt.Errorf("history database not enabled")
	}
	return m.database.MonthlyTotals(months)
}

// RecentRefreshes returns the latest logged refreshes, newest first.
func (m *Manager) RecentRefreshes(limit int) ([]models.RefreshRecord, error) {
	if m.database == nil {
		return nil, fmt.Errorf("history database not enabled")
	}
	return m.database.RecentRefreshes(limit)
}

// Project estimates the month-end total for summary using the per-day
// tokens in cache. History recorded before summary's month is used for
// comparison when the database is enabled.
func (m *Manager) Project(cache *models.StatsCache, summary models.MonthSummary) (*models.MonthProjection, error) {
	var daily []models.DailyTokens
	if cache != nil {
		daily = usage.DailyTokensForMonth(cache.DailyModelTokens, summary.Month)
	}
	return m.projection.Calculate(summary, daily, m.now())
}

// Projection returns the projection from the last refresh, or nil.
func (m *Manager) Projection() *models.MonthProjection {
	return m.projection.Latest()
}

// StatsPath returns the watched stats file.
func (m *Manager) StatsPath() string {
	return m.statsPath
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Watching reports whether file change notifications are active.
func (m *Manager) Watching() bool {
	return m.watcher.Watching()
}

// Indicator returns the status indicator.
func (m *Manager) Indicator() *display.Indicator {
	return m.indicator
}

// Database returns the history database, or nil when history is disabled.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Done is closed when the refresh loop exits.
func (m *Manager) Done() <-chan struct{} {
	return m.watcher.Done()
}

// Close stops the refresh loop and releases every resource.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}

		close(m.stopChan)
		m.indicator.Close()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.closeDatabase(); err != nil {
			errs = append(errs, err)
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (m *Manager) closeDatabase() error {
	if m.database == nil {
		return nil
	}
	return m.database.Close()
}
