package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// Run starts the dashboard on the alternate screen and blocks until the user
// quits or ctx is cancelled. bus may be nil.
func Run(ctx context.Context, store *todos.Store, bus *events.Bus) error {
	var ch <-chan events.Event
	if bus != nil {
		c, unsubscribe := bus.SubscribeChan(64, storeEventTypes...)
		defer unsubscribe()
		ch = c
	}

	p := tea.NewProgram(New(ctx, store, ch), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
