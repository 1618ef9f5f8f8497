package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"kalpdemo/pkg/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal UI (default)",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	// The alt screen owns the terminal, so logs only go to --log-file.
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	if err := logWarnings(logger, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, suite := newSuite(cfg, logger)
	defer suite.Close()
	suite.Watcher.Start(ctx)
	defer suite.Watcher.Stop()

	if err := tui.Start(ctx, suite, cfg.TokenDecimals, Version); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
