package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/ui"
)

// TUI launches the interactive movie browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	if err := r.open(); err != nil {
		return err
	}

	toasts := ui.NewToastChannel(16)
	r.toasts.set(toasts)
	defer r.toasts.set(printNotifier{r: r})

	model := ui.NewModel(ctx, ui.Deps{
		API:           r.api,
		Account:       r.account,
		Favorites:     r.favorites,
		Session:       r.store,
		Toasts:        toasts,
		ToastDuration: r.config.UI.ToastDuration(),
		MovieLimit:    r.config.API.MovieLimit,
		Logger:        r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
