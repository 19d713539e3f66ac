package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-token-tray/internal/app"
	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/services"
	"github.com/j-veylop/claude-token-tray/internal/ui/tabs/history"
	"github.com/j-veylop/claude-token-tray/internal/ui/tabs/info"
	"github.com/j-veylop/claude-token-tray/internal/ui/tabs/overview"
)

func newUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal popover (default)",
		Long: `Open the terminal popover.

Keyboard shortcuts:
  1-3             Switch between tabs (Overview, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  r               Refresh now
  ?               Toggle help
  q, Ctrl+C       Quit`,
		Args: cobra.NoArgs,
		RunE: c.runUI,
	}
}

// openLog points the logger at LogPath, since the terminal belongs to the
// popover. Without a LogPath logs are discarded.
func (c *cli) openLog() (func(), error) {
	if c.cfg.LogPath == "" {
		logger.SetOutput(io.Discard, c.logLevel(false))
		return func() {}, nil
	}

	f, err := logger.OpenFile(c.cfg.LogPath, c.logLevel(false))
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}

func (c *cli) runUI(cmd *cobra.Command, _ []string) error {
	closeLog, err := c.openLog()
	if err != nil {
		return err
	}
	defer closeLog()

	svcManager, err := services.NewManager(c.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: error closing services: %v\n", closeErr)
		}
	}()

	if err := svcManager.Start(); err != nil {
		return fmt.Errorf("failed to start refresh loop: %w", err)
	}

	model := app.NewModel(svcManager)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		overview.New(state, c.cfg.NotifyThreshold),
		history.New(state, svcManager),
		info.New(state, c.cfg, svcManager),
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("popover closed")
	return nil
}
