// Package history provides the history tab: recorded monthly totals and the
// refresh log kept in the history database.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-token-tray/internal/app"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services"
)

// recentLimit is how many refresh log rows the tab shows.
const recentLimit = 12

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	totals    []models.MonthlyTotal
	refreshes []models.RefreshRecord
	rng       models.HistoryRange
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	historyRange models.HistoryRange
	totals       []models.MonthlyTotal
	refreshes    []models.RefreshRecord
	loading      bool
	loaded       bool
	lastRefresh  time.Time
	errorMsg     string
}

// New creates a new history model. svc may be nil, in which case the tab
// only explains that history is unavailable.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:        state,
		services:     svc,
		keys:         defaultKeyMap(),
		viewport:     viewport.New(0, 0),
		historyRange: models.HistoryRange6Months,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return loadHistoryCmd(m.services, m.historyRange)
}

// loadHistoryCmd reads monthly totals for rng and the latest refresh log rows.
func loadHistoryCmd(svc *services.Manager, rng models.HistoryRange) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return historyErrorMsg{err: "Services not initialized"}
		}

		totals, err := svc.History(rng.Months())
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		refreshes, err := svc.RecentRefreshes(recentLimit)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}

		return historyLoadedMsg{totals: totals, refreshes: refreshes, rng: rng}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		// A range toggle may have overtaken this load.
		if msg.rng != m.historyRange {
			break
		}
		m.totals = msg.totals
		m.refreshes = msg.refreshes
		m.loading = false
		m.loaded = true
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		if msg.err != m.errorMsg {
			cmds = append(cmds, func() tea.Msg {
				return app.AddNotificationMsg{
					Type:     app.NotificationError,
					Message:  fmt.Sprintf("History error: %s", msg.err),
					Duration: app.LongNotificationDuration,
				}
			})
		}
		m.errorMsg = msg.err

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			cmds = append(cmds, m.reload())
		}

	case app.ServiceEventMsg:
		if _, ok := msg.Event.(services.HistoryRecordedEvent); ok {
			cmds = append(cmds, m.reload())
		}

	case app.ManualRefreshDoneMsg:
		cmds = append(cmds, m.reload())

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

// reload starts a history load unless one is already running.
func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	return loadHistoryCmd(m.services, m.historyRange)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.historyRange = m.historyRange.Next()
		m.loading = true
		return m, loadHistoryCmd(m.services, m.historyRange)

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// Range returns the selected history range.
func (m *Model) Range() models.HistoryRange {
	return m.historyRange
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}
