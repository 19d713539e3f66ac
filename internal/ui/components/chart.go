// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
)

// sparkChars are the block characters used by sparklines, low to high.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderLineChart creates a single-series ASCII line chart of non-negative
// whole-number values.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DarkOrange),
	)
}

// RenderBarChart creates a horizontal bar chart. format renders the value
// printed after each bar; nil prints one decimal place.
func RenderBarChart(values []float64, labels []string, width int, format func(float64) string) string {
	if len(values) == 0 {
		return ""
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}

	maxVal := maxOf(values)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	// Leave room for label and value
	barWidth := max(width-maxLabelLen-12, 10)
	barStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := barStyle.Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%*s │%s %s", maxLabelLen, label, bar, format(v)))
	}

	return strings.Join(lines, "\n")
}

// RenderHourlyHeatmap creates a 24-hour activity heatmap.
func RenderHourlyHeatmap(patterns []float64) string {
	if len(patterns) != 24 {
		padded := make([]float64, 24)
		copy(padded, patterns)
		patterns = padded
	}

	maxVal := maxOf(patterns)

	var result strings.Builder
	result.WriteString("00 ")

	for i, v := range patterns {
		intensity := scale(v, maxVal, len(HeatmapBlocks))

		var style lipgloss.Style
		switch intensity {
		case 0:
			style = lipgloss.NewStyle().Foreground(styles.Subtle)
		case 1:
			style = lipgloss.NewStyle().Foreground(styles.Success)
		case 2:
			style = lipgloss.NewStyle().Foreground(styles.Warning)
		default:
			style = lipgloss.NewStyle().Foreground(styles.Error)
		}

		result.WriteString(style.Render(string(HeatmapBlocks[intensity])))

		// Gap at noon for readability
		if i == 11 {
			result.WriteString(" ")
		}
	}

	result.WriteString(" 23")
	return result.String()
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := maxOf(values)

	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		result.WriteRune(sparkChars[scale(val, maxVal, len(sparkChars))])
	}

	return result.String()
}

// maxOf returns the largest value, or 1 when every value is zero or negative.
func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, v)
	}
	if m == 0 {
		return 1
	}
	return m
}

// scale maps v in [0, maxVal] onto a bucket index in [0, buckets).
func scale(v, maxVal float64, buckets int) int {
	idx := int((v / maxVal) * float64(buckets-1))
	return min(max(idx, 0), buckets-1)
}
