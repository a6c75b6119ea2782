package cli

import (
	"context"
	"log/slog"

	coreapp "koinlint/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI shows the findings browser and keeps re-analyzing in the background
// until the user quits or ctx is cancelled.
func runUI(ctx context.Context, app *coreapp.App, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{report: update.Report})
	})

	go func() {
		p.Send(updateMsg{report: app.CurrentUpdate().Report})
		if err := app.Watch(ctx, configPath); err != nil {
			slog.Error("watch failed", "error", err)
		}
	}()

	_, err := p.Run()
	if ctx.Err() != nil && err != nil {
		// cancelled from outside, e.g. SIGINT
		return nil
	}
	return err
}
