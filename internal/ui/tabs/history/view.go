package history

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/ui/components"
	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && !m.loaded {
		return m.renderLoading()
	}
	if m.errorMsg != "" && !m.loaded {
		return m.renderError()
	}

	sections := []string{
		m.renderHeader(),
		m.renderDailyChart(),
		m.renderMonthlyTotals(),
		m.renderRecentRefreshes(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-8, 40)
}

func (m *Model) threshold() uint64 {
	if m.services == nil {
		return 0
	}
	return m.services.Config().NotifyThreshold
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	lines := []string{
		styles.TitleStyle.Render("History"),
		fmt.Sprintf("%s %s", styles.ErrorTextStyle.Render("Error:"), m.errorMsg),
	}
	if m.services != nil && m.services.Database() == nil {
		lines = append(lines, "", styles.HelpStyle.Render("Set HISTORY_ENABLED=true to record monthly totals."))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.historyRange))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if len(m.totals) > 0 {
		oldest := m.totals[len(m.totals)-1].Month
		newest := m.totals[0].Month
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Recorded: %s → %s (%d months)", oldest, newest, len(m.totals)))
	}
	if m.errorMsg != "" {
		subtitle = styles.WarningTextStyle.Render("Last load failed: " + m.errorMsg)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderDailyChart() string {
	cardWidth := m.cardWidth()

	summary, ok := m.state.GetSummary()
	label := "this month"
	if ok {
		label = summary.Month
	}

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("📈")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Daily tokens, "+label)),
	}

	var daily []models.DailyTokens
	if cache := m.state.GetStats(); cache != nil && ok {
		daily = usage.DailyTokensForMonth(cache.DailyModelTokens, summary.Month)
	}

	if len(daily) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No daily data for this month"))
	} else {
		values := lo.Map(daily, func(d models.DailyTokens, _ int) float64 { return float64(d.Tokens) })
		chart := components.RenderLineChart(values, max(cardWidth-16, 30), 8,
			fmt.Sprintf("%d days, %s to %s", len(daily), daily[0].Date, daily[len(daily)-1].Date))
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		peak := lo.MaxBy(daily, func(a, b models.DailyTokens) bool { return a.Tokens > b.Tokens })
		rows = append(rows, "", fmt.Sprintf("  Peak: %s (%s tokens)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(peak.Date),
			usage.FormatMagnitude(peak.Tokens),
		))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderMonthlyTotals() string {
	cardWidth := m.cardWidth()

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("📅")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Monthly totals")),
	}

	if len(m.totals) == 0 {
		rows = append(rows,
			styles.HelpStyle.Render("  No months recorded yet."),
			styles.HelpStyle.Render("  Totals appear after the first successful refresh."),
		)
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	// Oldest month on top.
	ordered := slices.Clone(m.totals)
	slices.Reverse(ordered)

	if threshold := m.threshold(); threshold > 0 {
		barWidth := max(cardWidth-40, 10)
		for _, t := range ordered {
			pct := float64(t.Tokens) / float64(threshold) * 100
			rows = append(rows, fmt.Sprintf("  %s │%s %s",
				t.Month,
				components.RenderGradientBar(components.Fraction(t.Tokens, threshold), barWidth),
				styles.GetUsageStyle(t.Tokens, threshold).Render(fmt.Sprintf("%s (%.0f%%)", usage.FormatMagnitude(t.Tokens), pct)),
			))
		}
	} else {
		values := lo.Map(ordered, func(t models.MonthlyTotal, _ int) float64 { return float64(t.Tokens) })
		labels := lo.Map(ordered, func(t models.MonthlyTotal, _ int) string { return t.Month })
		chart := components.RenderBarChart(values, labels, max(cardWidth-12, 30), func(v float64) string {
			return usage.FormatMagnitude(uint64(v))
		})
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	total := lo.SumBy(m.totals, func(t models.MonthlyTotal) uint64 { return t.Tokens })
	avg := total / uint64(len(m.totals))
	rows = append(rows, "", fmt.Sprintf("  Total %s · average %s per month",
		lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(usage.FormatMagnitude(total)),
		usage.FormatMagnitude(avg),
	))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRecentRefreshes() string {
	cardWidth := m.cardWidth()

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("🕐")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Recent changes")),
	}

	if len(m.refreshes) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No changes logged yet."))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	header := fmt.Sprintf("%-16s %-8s %10s %10s  %-12s", "When", "Month", "Tokens", "Change", "Trigger")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for i, rec := range m.refreshes {
		change := "-"
		if prev, ok := previousInMonth(m.refreshes[i+1:], rec.Month); ok {
			change = formatDelta(rec.Tokens, prev.Tokens)
		}
		rows = append(rows, fmt.Sprintf("%-16s %-8s %10s %10s  %-12s",
			humanize.Time(rec.RecordedAt),
			rec.Month,
			usage.FormatMagnitude(rec.Tokens),
			change,
			rec.Trigger,
		))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// previousInMonth returns the first record for month in older, which is
// ordered newest first.
func previousInMonth(older []models.RefreshRecord, month string) (models.RefreshRecord, bool) {
	return lo.Find(older, func(r models.RefreshRecord) bool { return r.Month == month })
}

// formatDelta renders the signed difference between two totals.
func formatDelta(cur, prev uint64) string {
	if cur >= prev {
		return "+" + usage.FormatMagnitude(cur-prev)
	}
	return "-" + usage.FormatMagnitude(prev-cur)
}
