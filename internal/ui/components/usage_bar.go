package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/ui/styles"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

const (
	usageGradientFrom = "#51cf66"
	usageGradientTo   = "#ff6b6b"
)

// UsageBar renders the month's token total against the notification threshold.
type UsageBar struct {
	progress progress.Model
}

// NewUsageBar creates a usage bar with a green to red gradient.
func NewUsageBar(width int) UsageBar {
	p := progress.New(
		progress.WithScaledGradient(usageGradientFrom, usageGradientTo),
		progress.WithWidth(max(width, 10)),
		progress.WithoutPercentage(),
	)
	return UsageBar{progress: p}
}

// SetWidth sets the progress bar width.
func (u *UsageBar) SetWidth(width int) {
	u.progress.Width = max(width, 10)
}

// Fraction returns tokens/threshold clamped to [0, 1]. A zero threshold
// yields 0.
func Fraction(tokens, threshold uint64) float64 {
	if threshold == 0 {
		return 0
	}
	return min(float64(tokens)/float64(threshold), 1)
}

// View renders "<bar> <tokens> / <threshold> (<pct>%)". Without a threshold
// only the token count is shown.
func (u UsageBar) View(tokens, threshold uint64) string {
	style := styles.GetUsageStyle(tokens, threshold)
	if threshold == 0 {
		return style.Render(usage.FormatMagnitude(tokens) + " tokens") +
			styles.HelpStyle.Render("  (no threshold set)")
	}

	bar := u.progress.ViewAs(Fraction(tokens, threshold))
	pct := float64(tokens) / float64(threshold) * 100
	label := style.Render(fmt.Sprintf("%s / %s (%.0f%%)",
		usage.FormatMagnitude(tokens), usage.FormatMagnitude(threshold), pct))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", label)
}

// RenderGradientBar renders a fixed-width bar without the progress model,
// for places where an animated bar is not wanted.
func RenderGradientBar(fraction float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*fraction), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(usageGradientFrom, usageGradientTo, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
