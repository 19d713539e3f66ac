package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/services/projection"
	"github.com/j-veylop/claude-token-tray/internal/stats"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

// statusReport is the --json shape of the status command.
type statusReport struct {
	StatsPath        string            `json:"statsPath"`
	LastComputedDate string            `json:"lastComputedDate"`
	Month            string            `json:"month"`
	Title            string            `json:"title"`
	Tokens           uint64            `json:"tokens"`
	Messages         uint64            `json:"messages"`
	Sessions         uint64            `json:"sessions"`
	ToolCalls        uint64            `json:"toolCalls"`
	AllTimeTokens    uint64            `json:"allTimeTokens"`
	AllTimeCostUSD   float64           `json:"allTimeCostUsd"`
	Projection       *statusProjection `json:"projection,omitempty"`
}

type statusProjection struct {
	ProjectedTokens uint64     `json:"projectedTokens"`
	DailyRate       float64    `json:"dailyRate"`
	Status          string     `json:"status"`
	Confidence      string     `json:"confidence"`
	CrossesAt       *time.Time `json:"crossesAt,omitempty"`
}

func newStatusCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Read the stats file once and print this month's total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetOutput(cmd.ErrOrStderr(), c.logLevel(true))

			if c.cfg.StatsPath == "" {
				return fmt.Errorf("stats file location unknown: set STATS_PATH")
			}

			cache, err := stats.ReadFromPath(c.cfg.StatsPath)
			if err != nil {
				return err
			}

			report := buildStatusReport(c.cfg.StatsPath, cache, time.Now(), c.cfg.NotifyThreshold)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printStatus(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output the summary as JSON")
	return cmd
}

func buildStatusReport(path string, cache *models.StatsCache, now time.Time, threshold uint64) statusReport {
	summary := usage.Summarize(cache, now.Unix())
	report := statusReport{
		StatsPath:        path,
		LastComputedDate: cache.LastComputedDate,
		Month:            summary.Month,
		Title:            summary.Title,
		Tokens:           summary.Tokens,
		Messages:         summary.Messages,
		Sessions:         summary.Sessions,
		ToolCalls:        summary.ToolCalls,
		AllTimeTokens:    usage.TotalTokens(cache.ModelUsage),
		AllTimeCostUSD:   usage.TotalCostUSD(cache.ModelUsage),
	}

	daily := usage.DailyTokensForMonth(cache.DailyModelTokens, summary.Month)
	proj, err := projection.New(nil, threshold).Calculate(summary, daily, now)
	if err != nil {
		logger.Debug("projection skipped", "error", err)
		return report
	}

	report.Projection = &statusProjection{
		ProjectedTokens: proj.ProjectedTokens,
		DailyRate:       math.Round(proj.DailyRate),
		Status:          string(proj.Status),
		Confidence:      proj.Confidence,
	}
	if !proj.CrossesAt.IsZero() {
		report.Projection.CrossesAt = &proj.CrossesAt
	}
	return report
}

func printStatus(w io.Writer, r statusReport) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(18)
	valueStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(fmt.Sprintf("%s tokens in %s", r.Title, r.Month)),
		"",
		row("Tokens", usage.FormatNumber(r.Tokens)),
		row("Messages", usage.FormatNumber(r.Messages)),
		row("Sessions", usage.FormatNumber(r.Sessions)),
		row("Tool calls", usage.FormatNumber(r.ToolCalls)),
		"",
		projectionRows(r.Projection, row, dimStyle),
		row("All-time tokens", usage.FormatMagnitude(r.AllTimeTokens)),
		row("All-time cost", usage.FormatCostUSD(r.AllTimeCostUSD)),
		"",
		dimStyle.Render(fmt.Sprintf("%s (computed %s)", r.StatsPath, r.LastComputedDate)),
	)

	_, err := fmt.Fprintln(w, content)
	return err
}

func projectionRows(p *statusProjection, row func(label, value string) string, dim lipgloss.Style) string {
	if p == nil {
		return ""
	}

	rows := []string{
		row("Projected", usage.FormatMagnitude(p.ProjectedTokens)+" by month end"),
		row("Daily rate", usage.FormatMagnitude(uint64(p.DailyRate))+" / day"),
	}
	if p.Status != string(models.ProjectionUnknown) {
		status := p.Status
		if p.CrossesAt != nil {
			status += ", threshold " + p.CrossesAt.Local().Format("Jan 2 15:04")
		}
		rows = append(rows, row("Threshold", status))
	}
	rows = append(rows, dim.Render(p.Confidence+" confidence"), "")

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
