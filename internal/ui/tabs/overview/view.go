package overview

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/ui/components"
	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

// View renders the overview tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(&m.spinner, m.width, m.height)
	}

	sections := []string{m.renderTitle()}

	summary, ok := m.state.GetSummary()
	if !ok {
		sections = append(sections, m.renderUnavailable())
	} else {
		cache := m.state.GetStats()
		sections = append(sections,
			m.renderMonthCard(summary, cache),
			m.renderProjectionCard(m.state.GetProjection()),
			m.renderModelTable(cache),
			m.renderAllTimeCard(cache),
		)
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

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Claude Token Usage")

	sub := "Tokens used this calendar month"
	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		sub += " · updated " + humanize.Time(updated)
	}

	lines := []string{title, styles.HelpStyle.Render(sub)}
	if err := m.state.GetStatsError(); err != nil {
		lines = append(lines, styles.WarningTextStyle.Render("Last read failed: "+err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func (m *Model) renderUnavailable() string {
	rows := []string{
		styles.CardTitleStyle.Render("No data yet"),
		styles.HelpStyle.Render("The stats file has not been read successfully."),
		styles.InfoTextStyle.Render("  ╰─▶ Run Claude Code once to create ~/.claude/stats-cache.json"),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// monthLabel turns "2026-10" into "October 2026".
func monthLabel(prefix string) string {
	t, err := time.Parse("2006-01", prefix)
	if err != nil {
		return prefix
	}
	return t.Format("January 2006")
}

func (m *Model) renderMonthCard(summary models.MonthSummary, cache *models.StatsCache) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render(monthLabel(summary.Month)))

	big := styles.BigNumberStyle.Render(usage.FormatMagnitude(m.counter.current))
	exact := styles.HelpStyle.Render(usage.FormatNumber(summary.Tokens) + " tokens")

	rows := []string{
		header,
		lipgloss.JoinHorizontal(lipgloss.Center, big, " ", exact),
		"",
		m.usageBar.View(summary.Tokens, m.threshold),
		"",
		renderCounts(summary),
	}

	if cache != nil {
		daily := usage.DailyTokensForMonth(cache.DailyModelTokens, summary.Month)
		if len(daily) > 0 {
			values := lo.Map(daily, func(d models.DailyTokens, _ int) float64 { return float64(d.Tokens) })
			spark := components.RenderSparkline(values, m.cardWidth()-20)
			rows = append(rows, "", styles.LabelStyle.Render("Daily")+lipgloss.NewStyle().Foreground(styles.Primary).Render(spark))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderProjectionCard(proj *models.MonthProjection) string {
	if proj == nil {
		return ""
	}

	kv := func(label, value string) string {
		return styles.LabelStyle.Render(label) + styles.ValueStyle.Render(value)
	}

	header := styles.CardTitleStyle.Render("Month-end projection")
	if badge := projectionBadge(proj.Status); badge != "" {
		header += "  " + badge
	}

	rows := []string{
		header,
		kv("Projected", usage.FormatMagnitude(proj.ProjectedTokens)+" tokens"),
		kv("Daily rate", usage.FormatMagnitude(uint64(proj.DailyRate))+" / day"),
		kv("Active days", fmt.Sprintf("%d of %.0f", proj.ActiveDays, proj.DaysElapsed)),
	}

	if proj.WillExceed {
		crossing := "already reached"
		if !proj.CrossesAt.IsZero() {
			crossing = proj.CrossesAt.Local().Format("Jan 2 15:04") + " (" + humanize.Time(proj.CrossesAt) + ")"
		}
		style := styles.WarningTextStyle
		if proj.Status == models.ProjectionCritical {
			style = styles.ErrorTextStyle
		}
		rows = append(rows, kv("Threshold", style.Render(crossing)))
	}

	if proj.VsLastMonth != "" {
		rows = append(rows, kv("Vs last month", proj.VsLastMonth), kv("Vs average", proj.VsHistorical))
	}

	rows = append(rows, styles.HelpStyle.Render(proj.Confidence+" confidence"))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func projectionBadge(status models.ProjectionStatus) string {
	switch status {
	case models.ProjectionCritical:
		return styles.ProjectionCriticalStyle.Render("▲ CRITICAL")
	case models.ProjectionWarning:
		return styles.ProjectionWarningStyle.Render("▲ WARNING")
	case models.ProjectionSafe:
		return styles.ProjectionSafeStyle.Render("● SAFE")
	default:
		return ""
	}
}

func renderCounts(summary models.MonthSummary) string {
	item := func(label string, n uint64) string {
		return styles.HelpStyle.Render(label+" ") + styles.ValueStyle.Render(usage.FormatNumber(n))
	}
	return strings.Join([]string{
		item("Messages", summary.Messages),
		item("Sessions", summary.Sessions),
		item("Tool calls", summary.ToolCalls),
	}, styles.HelpStyle.Render("  ·  "))
}

var tableColumns = []struct {
	title string
	width int
}{
	{"Model", 18},
	{"Input", 9},
	{"Output", 9},
	{"Cache", 9},
	{"Total", 9},
	{"Cost", 10},
}

func (m *Model) renderModelTable(cache *models.StatsCache) string {
	title := styles.CardTitleStyle.Render(fmt.Sprintf("Models (all time, by %s)", m.sortMode))

	if cache == nil || len(cache.ModelUsage) == 0 {
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render("No model usage recorded")),
		)
	}

	rows := usage.ModelSummaries(cache.ModelUsage)
	sortSummaries(rows, m.sortMode)

	header := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		header[i] = cell(c.title, c.width, i > 0)
	}

	lines := []string{title, styles.TableHeaderStyle.Render(strings.Join(header, ""))}
	for _, r := range rows {
		values := []string{
			usage.FormatModelName(r.Model),
			usage.FormatMagnitude(r.InputTokens),
			usage.FormatMagnitude(r.OutputTokens),
			usage.FormatMagnitude(r.CacheReadTokens + r.CacheCreationTokens),
			usage.FormatMagnitude(r.TotalTokens),
			usage.FormatCostUSD(r.CostUSD),
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = cell(v, tableColumns[i].width, i > 0)
		}
		lines = append(lines, strings.Join(cells, ""))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func cell(s string, width int, right bool) string {
	style := styles.TableCellStyle.Width(width)
	if right {
		style = style.Align(lipgloss.Right)
	}
	if lipgloss.Width(s) > width-2 {
		s = s[:max(width-3, 1)] + "…"
	}
	return style.Render(s)
}

func (m *Model) renderAllTimeCard(cache *models.StatsCache) string {
	if cache == nil {
		return ""
	}

	kv := func(label, value string) string {
		return styles.LabelStyle.Render(label) + styles.ValueStyle.Render(value)
	}

	rows := []string{
		styles.CardTitleStyle.Render("All time"),
		kv("Total tokens", usage.FormatNumber(usage.TotalTokens(cache.ModelUsage))),
		kv("Input / output", usage.FormatMagnitude(usage.InputTokens(cache.ModelUsage))+" / "+usage.FormatMagnitude(usage.OutputTokens(cache.ModelUsage))),
		kv("Cache tokens", usage.FormatMagnitude(usage.CacheTokens(cache.ModelUsage))),
		kv("Cost", usage.FormatCostUSD(usage.TotalCostUSD(cache.ModelUsage))),
		kv("Sessions", usage.FormatNumber(cache.TotalSessions)),
		kv("Messages", usage.FormatNumber(cache.TotalMessages)),
	}

	if cache.FirstSessionDate != nil {
		rows = append(rows, kv("First session", formatTimestamp(*cache.FirstSessionDate)))
	}
	if ls := cache.LongestSession; ls != nil {
		d := time.Duration(ls.Duration) * time.Millisecond
		rows = append(rows, kv("Longest session", fmt.Sprintf("%s, %d messages", d.Round(time.Minute), ls.MessageCount)))
	}

	if len(cache.HourCounts) > 0 {
		rows = append(rows, "", styles.LabelStyle.Render("Activity by hour")+components.RenderHourlyHeatmap(hourPattern(cache.HourCounts)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// formatTimestamp renders an RFC 3339 timestamp as a date with a relative
// age, or the raw value when it does not parse.
func formatTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%s (%s)", t.Format(time.DateOnly), humanize.Time(t))
}

// hourPattern converts the "0".."23" keyed hour counts into a dense slice.
// Keys outside that range are ignored.
func hourPattern(counts map[string]uint64) []float64 {
	pattern := make([]float64, 24)
	for k, v := range counts {
		h, err := strconv.Atoi(k)
		if err != nil || h < 0 || h > 23 {
			continue
		}
		pattern[h] = float64(v)
	}
	return pattern
}
