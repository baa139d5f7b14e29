package todos

import "github.com/dohr-michael/todoglass/internal/events"

// Publisher receives store events. *events.Bus satisfies it.
type Publisher interface {
	Publish(events.Event)
}

// Change names the field an update touched.
type Change string

const (
	ChangeCompleted Change = "completed"
	ChangeImportant Change = "important"
	ChangeText      Change = "text"
)

// LoadedPayload is published once the initial load resolves.
type LoadedPayload struct {
	Count     int    `json:"count"`
	Recovered bool   `json:"recovered,omitempty"` // stored data was unreadable and was discarded
	ReadOnly  bool   `json:"read_only,omitempty"` // storage failed; mutations are refused
	Error     string `json:"error,omitempty"`
}

func (LoadedPayload) EventType() events.EventType { return events.EventTodosLoaded }

// AddedPayload carries a newly created task.
type AddedPayload struct {
	Task Task `json:"task"`
}

func (AddedPayload) EventType() events.EventType { return events.EventTodoAdded }

// UpdatedPayload carries a task after an in-place mutation.
type UpdatedPayload struct {
	Task   Task   `json:"task"`
	Change Change `json:"change"`
}

func (UpdatedPayload) EventType() events.EventType { return events.EventTodoUpdated }

// DeletedPayload names a removed task.
type DeletedPayload struct {
	ID ID `json:"id"`
}

func (DeletedPayload) EventType() events.EventType { return events.EventTodoDeleted }

// SaveFailedPayload reports a write-through failure.
type SaveFailedPayload struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

func (SaveFailedPayload) EventType() events.EventType { return events.EventTodosSaveFailed }

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
