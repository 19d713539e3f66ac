package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
	"github.com/j-veylop/claude-token-tray/internal/usage"
	"github.com/j-veylop/claude-token-tray/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderStatusCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-8, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	statsPath := m.config.StatsPath
	if statsPath == "" {
		statsPath = "unknown (set STATS_PATH)"
	}

	database := "disabled"
	if m.config.HistoryEnabled {
		database = m.config.DatabasePath
	}

	logPath := m.config.LogPath
	if logPath == "" {
		logPath = "disabled"
	}

	threshold := "off"
	if m.config.NotifyThreshold > 0 {
		threshold = usage.FormatNumber(m.config.NotifyThreshold) + " tokens"
	}

	rows = append(rows,
		renderConfigRow("Stats file", statsPath),
		renderConfigRow("Database", database),
		renderConfigRow("Log file", logPath),
		renderConfigRow("Log level", m.config.LogLevel),
		renderConfigRow("Refresh interval", m.config.RefreshInterval.String()),
		renderConfigRow("Poll unwatched", fmt.Sprintf("%t", m.config.PollWithoutWatcher)),
		renderConfigRow("Notify threshold", threshold),
		"",
		styles.HelpStyle.Render("Press 'c' to copy the stats path, 'd' for the database path"),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderStatusCard() string {
	rows := []string{styles.CardTitleStyle.Render("Status")}

	if m.services == nil {
		rows = append(rows, styles.HelpStyle.Render("Refresh loop not running"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	watching := styles.SuccessTextStyle.Render("watching for changes")
	if !m.services.Watching() {
		watching = styles.WarningTextStyle.Render("polling only")
	}

	title := m.state.GetTitle()
	if title == "" {
		title = "---"
	}

	lastRead := "never"
	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		lastRead = humanize.Time(updated)
	}

	rows = append(rows,
		renderConfigRow("Watcher", watching),
		renderConfigRow("Indicator", title),
		renderConfigRow("Last read", lastRead),
	)

	if err := m.state.GetStatsError(); err != nil {
		rows = append(rows, renderConfigRow("Last error", styles.ErrorTextStyle.Render(err.Error())))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderConfigRow renders a configuration key-value row.
func renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		renderConfigRow("Version", version.GetVersion()),
		renderConfigRow("Commit", version.GetCommit()),
		renderConfigRow("Build date", version.GetDate()),
		renderConfigRow("Go version", runtime.Version()),
		renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
