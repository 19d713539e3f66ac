package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
)

// LoadingSpinner is a dot spinner followed by a muted label. The overview
// shows it until the first snapshot has been read.
type LoadingSpinner struct {
	model spinner.Model
	label string
}

// NewSpinner creates a spinner labelled with label.
func NewSpinner(label string) LoadingSpinner {
	m := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
	)
	return LoadingSpinner{model: m, label: label}
}

// Init starts the animation.
func (l LoadingSpinner) Init() tea.Cmd {
	return l.model.Tick
}

// Update advances the animation on spinner ticks.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.model, cmd = l.model.Update(msg)
	return l, cmd
}

// View renders the current frame and the label.
func (l LoadingSpinner) View() string {
	return l.model.View() + " " + styles.HelpStyle.Render(l.label)
}

// RenderSpinnerCentered centers the spinner in a width by height box.
func RenderSpinnerCentered(s *LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.View(), width, height)
}
