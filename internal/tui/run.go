package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dailypixel/storydesk/internal/source"
)

// Run starts the browser and blocks until the reader quits. When watchPath
// is non-empty the data file is reloaded whenever it changes.
func Run(ctx context.Context, opts Options, watchPath string, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))

	if watchPath != "" {
		go func() {
			err := source.Watch(ctx, watchPath, interval,
				func() { program.Send(SourceChanged{}) },
				func(err error) { program.Send(WatchFailed{Err: err}) },
			)
			if err != nil {
				program.Send(WatchFailed{Err: err})
			}
		}()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
