package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// LoadedMsg is sent once the store has finished its initial load.
type LoadedMsg struct{}

// StoreEventMsg wraps a store event received from the bus.
type StoreEventMsg struct {
	Event events.Event
}

// storeEventTypes are the bus events that change what the dashboard shows.
var storeEventTypes = []events.EventType{
	events.EventTodosLoaded,
	events.EventTodosSaveFailed,
	events.EventTodoAdded,
	events.EventTodoUpdated,
	events.EventTodoDeleted,
}

func loadCmd(ctx context.Context, store *todos.Store) tea.Cmd {
	return func() tea.Msg {
		store.Load(ctx)
		return LoadedMsg{}
	}
}

// waitForEvent blocks on the next bus event. A closed channel ends the loop.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return StoreEventMsg{Event: ev}
	}
}
