// Package info provides the info tab: configuration, watcher status and
// build information.
package info

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-token-tray/internal/app"
	"github.com/j-veylop/claude-token-tray/internal/config"
	"github.com/j-veylop/claude-token-tray/internal/services"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	CopyStats key.Binding
	CopyDB    key.Binding
	Up        key.Binding
	Down      key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		CopyStats: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy stats path"),
		),
		CopyDB: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "copy database path"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new info model. svc may be nil; the tab then shows only
// the configuration.
func New(state *app.State, cfg *config.Config, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.CopyStats):
		if m.config != nil {
			return m, copyCmd("Stats path", m.config.StatsPath)
		}
	case key.Matches(keyMsg, m.keys.CopyDB):
		if m.config != nil && m.config.HistoryEnabled {
			return m, copyCmd("Database path", m.config.DatabasePath)
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}

	return m, nil
}

// copyCmd writes text to the system clipboard and reports the outcome as
// a notification.
func copyCmd(label, text string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  label + " is not set",
				Duration: app.DefaultNotificationDuration,
			}
		}
		if err := writeClipboard(text); err != nil {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("Copy failed: %v", err),
				Duration: app.LongNotificationDuration,
			}
		}
		return app.AddNotificationMsg{
			Type:     app.NotificationSuccess,
			Message:  label + " copied",
			Duration: app.QuickNotificationDuration,
		}
	}
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.CopyStats, m.keys.CopyDB}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.CopyStats, m.keys.CopyDB},
		{m.keys.Up, m.keys.Down},
	}
}
