// Package overview provides the main tab: this month's token total and the
// per-model breakdown.
package overview

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-token-tray/internal/app"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/ui/components"
)

const countUpDuration = 1200 * time.Millisecond

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// SortMode orders the model table.
type SortMode int

const (
	// SortByTokens orders models by total tokens, largest first.
	SortByTokens SortMode = iota
	// SortByCost orders models by cost, largest first.
	SortByCost
	// SortByName orders models alphabetically.
	SortByName
)

// String returns the label shown in the table header.
func (s SortMode) String() string {
	switch s {
	case SortByTokens:
		return "tokens"
	case SortByCost:
		return "cost"
	case SortByName:
		return "name"
	default:
		return "unknown"
	}
}

// Next cycles to the next sort mode.
func (s SortMode) Next() SortMode {
	return (s + 1) % 3
}

type keyMap struct {
	Sort     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle model sort"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
	}
}

// countUp animates the displayed token total towards the latest value.
type countUp struct {
	start   time.Time
	from    uint64
	to      uint64
	current uint64
}

// retarget begins a new animation when the target changed. It reports
// whether the display is still moving.
func (c *countUp) retarget(target uint64, now time.Time) bool {
	if target != c.to {
		c.from = c.current
		c.to = target
		c.start = now
	}
	return c.current != c.to
}

// step advances the animation with an ease-out curve.
func (c *countUp) step(now time.Time) {
	if c.current == c.to {
		return
	}
	elapsed := now.Sub(c.start)
	if elapsed >= countUpDuration {
		c.current = c.to
		return
	}
	progress := float64(elapsed) / float64(countUpDuration)
	ease := 1.0 - (1.0-progress)*(1.0-progress)
	delta := (float64(c.to) - float64(c.from)) * ease
	c.current = uint64(float64(c.from) + delta)
}

// Model represents the overview tab state.
type Model struct {
	state     *app.State
	spinner   components.LoadingSpinner
	usageBar  components.UsageBar
	keys      keyMap
	viewport  viewport.Model
	counter   countUp
	threshold uint64
	sortMode  SortMode
	width     int
	height    int
}

// New creates an overview tab. threshold is the notification threshold used
// to scale the usage bar; zero disables the bar.
func New(state *app.State, threshold uint64) *Model {
	return &Model{
		state:     state,
		threshold: threshold,
		spinner:   components.NewSpinner("Reading stats..."),
		usageBar:  components.NewUsageBar(30),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		if cmd := m.handleAnimationTick(time.Time(msg)); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case app.StatsLoadedMsg, app.ManualRefreshDoneMsg:
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(now time.Time) tea.Cmd {
	summary, ok := m.state.GetSummary()
	if !ok {
		if m.state.IsInitialLoading() {
			return animationTickCmd()
		}
		return nil
	}

	moving := m.counter.retarget(summary.Tokens, now)
	m.counter.step(now)
	if moving {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Sort):
		m.sortMode = m.sortMode.Next()
		return nil
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	// DocStyle adds two cells of margin and one of padding on each side.
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
	m.usageBar.SetWidth(min(max(width-40, 10), 40))
}

// SortMode returns the current model table order.
func (m *Model) SortMode() SortMode {
	return m.sortMode
}

// DisplayedTokens returns the animated token count currently on screen.
func (m *Model) DisplayedTokens() uint64 {
	return m.counter.current
}

// sortSummaries orders rows in place according to mode. Ties fall back to
// model name.
func sortSummaries(rows []models.ModelSummary, mode SortMode) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch mode {
		case SortByCost:
			if a.CostUSD != b.CostUSD {
				return a.CostUSD > b.CostUSD
			}
		case SortByTokens:
			if a.TotalTokens != b.TotalTokens {
				return a.TotalTokens > b.TotalTokens
			}
		}
		return a.Model < b.Model
	})
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Sort, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Sort},
		{m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown},
	}
}
