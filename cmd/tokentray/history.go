package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-token-tray/internal/db"
	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/models"
	"github.com/j-veylop/claude-token-tray/internal/usage"
)

type historyMonth struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Month     string    `json:"month"`
	Title     string    `json:"title"`
	Tokens    uint64    `json:"tokens"`
}

type historyRefresh struct {
	RecordedAt time.Time `json:"recordedAt"`
	CycleID    string    `json:"cycleId"`
	Month      string    `json:"month"`
	Trigger    string    `json:"trigger"`
	Tokens     uint64    `json:"tokens"`
}

// historyReport is the --json shape of the history command.
type historyReport struct {
	Months    []historyMonth   `json:"months"`
	Refreshes []historyRefresh `json:"refreshes,omitempty"`
}

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit     int
		refreshes int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded monthly totals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetOutput(cmd.ErrOrStderr(), c.logLevel(true))

			if !c.cfg.HistoryEnabled {
				return errors.New("history is disabled (HISTORY_ENABLED=false)")
			}

			database, err := db.New(c.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer func() { _ = database.Close() }()

			report, err := loadHistoryReport(database, limit, refreshes)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printHistory(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 12, "Max months shown (0 for all)")
	cmd.Flags().IntVarP(&refreshes, "refreshes", "r", 0, "Also show the latest N logged changes")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output results in JSON format")
	return cmd
}

func loadHistoryReport(database *db.DB, limit, refreshes int) (historyReport, error) {
	var report historyReport

	totals, err := database.MonthlyTotals(limit)
	if err != nil {
		return report, err
	}
	report.Months = make([]historyMonth, 0, len(totals))
	for _, t := range totals {
		report.Months = append(report.Months, toHistoryMonth(t))
	}

	if refreshes > 0 {
		records, err := database.RecentRefreshes(refreshes)
		if err != nil {
			return report, err
		}
		for _, r := range records {
			report.Refreshes = append(report.Refreshes, historyRefresh{
				RecordedAt: r.RecordedAt,
				CycleID:    r.CycleID,
				Month:      r.Month,
				Trigger:    r.Trigger,
				Tokens:     r.Tokens,
			})
		}
	}

	return report, nil
}

func toHistoryMonth(t models.MonthlyTotal) historyMonth {
	return historyMonth{
		UpdatedAt: t.UpdatedAt,
		Month:     t.Month,
		Title:     t.Title,
		Tokens:    t.Tokens,
	}
}

func printHistory(w io.Writer, r historyReport) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if len(r.Months) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("No months recorded yet. Run tokentray once to record the current month."))
		return err
	}

	lines := []string{headerStyle.Render(fmt.Sprintf("%-8s %10s %16s", "Month", "Total", "Tokens"))}
	for _, m := range r.Months {
		lines = append(lines, fmt.Sprintf("%-8s %10s %16s", m.Month, usage.FormatMagnitude(m.Tokens), usage.FormatNumber(m.Tokens)))
	}

	if len(r.Refreshes) > 0 {
		lines = append(lines, "", headerStyle.Render(fmt.Sprintf("%-19s %-8s %10s  %s", "Recorded (UTC)", "Month", "Total", "Trigger")))
		for _, rec := range r.Refreshes {
			lines = append(lines, fmt.Sprintf("%-19s %-8s %10s  %s",
				rec.RecordedAt.UTC().Format(time.DateTime), rec.Month, usage.FormatMagnitude(rec.Tokens), rec.Trigger))
		}
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return err
}
