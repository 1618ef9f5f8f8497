package tui

import (
	"context"

	"kalpdemo/pkg/dapp"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the terminal UI until the user quits or ctx is canceled.
func Start(ctx context.Context, suite *dapp.Suite, decimals int, version string) error {
	Version = version
	p := tea.NewProgram(
		initialModel(ctx, suite, decimals),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
