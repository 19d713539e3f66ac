package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-token-tray/internal/config"
	"github.com/j-veylop/claude-token-tray/internal/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "tokentray",
		Short: "Claude Code token usage for the current month",
		Long: `tokentray watches ~/.claude/stats-cache.json and shows how many tokens
Claude Code used in the current calendar month, formatted as 1.2K, 3.4M or
5.6B.

Without a subcommand it opens the terminal popover.

Configuration is read from the environment and from .env files in the
current directory, ~/.config/tokentray/.env and ~/.claude/tokentray.env.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.loadConfig()
		},
		RunE: c.runUI,
	}

	root.AddCommand(
		newUICmd(c),
		newWatchCmd(c),
		newStatusCmd(c),
		newHistoryCmd(c),
		newVersionCmd(),
	)

	return root
}

func (c *cli) loadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

// logLevel returns the configured level. One-shot commands log warnings and
// errors only.
func (c *cli) logLevel(oneShot bool) slog.Level {
	level := logger.ParseLevel(c.cfg.LogLevel)
	if oneShot {
		return max(level, slog.LevelWarn)
	}
	return level
}
