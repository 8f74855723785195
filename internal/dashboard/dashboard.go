package dashboard

import (
	"context"
	"os"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m *Model) error {
	// Ensure TERM is set
	if os.Getenv("TERM") == "" {
		_ = os.Setenv("TERM", "xterm-256color")
	}

	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := program.Run()
	m.sink.Dispose()

	if err != nil && ctx.Err() == nil {
		return errors.New().Wrap(errors.ErrDashboard, err)
	}

	logger.Debug().Msg("Dashboard stopped")
	return nil
}
