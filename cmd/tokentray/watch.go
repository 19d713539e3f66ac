package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-token-tray/internal/display"
	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/services"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run headless and print the monthly total whenever it changes",
		Long: `Run the refresh loop without a terminal UI.

A line is printed to stdout every time the formatted monthly total changes.
Logs go to stderr. Threshold notifications and history recording work as in
the popover. Stop with Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: c.runWatch,
	}
}

func (c *cli) runWatch(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr(), c.logLevel(false))

	svcManager, err := services.NewManager(c.cfg, display.NewWriterSink(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := svcManager.Start(); err != nil {
		_ = svcManager.Close()
		return fmt.Errorf("failed to start refresh loop: %w", err)
	}

	logger.Info("watching stats file",
		"path", svcManager.StatsPath(),
		"interval", c.cfg.RefreshInterval,
		"history", c.cfg.HistoryEnabled,
	)

	select {
	case <-cmd.Context().Done():
		logger.Info("shutting down")
	case <-svcManager.Done():
		logger.Warn("refresh loop exited")
	}

	return svcManager.Close()
}
