package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/storage"
)

// DefaultKey is the storage namespace of the task blob.
const DefaultKey = "glassmorphism-todos"

// Reasons a mutation would be a no-op, for callers that must report them.
var (
	ErrNotReady  = errors.New("tasks are still loading")
	ErrNotFound  = errors.New("task not found")
	ErrBlankText = errors.New("task text is blank")
	// ErrUnreadable marks a store whose storage could not be read. Saving
	// the empty collection would overwrite data that may still be recoverable.
	ErrUnreadable = errors.New("stored tasks could not be read")
)

// State is the store lifecycle state.
type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPublisher sends store events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.pub = p
		}
	}
}

// Store holds the authoritative task collection. Every mutation runs to
// completion, including its write-through save, before the next one starts.
// Until Load resolves the store is Loading: mutations are ignored and nothing
// is ever written to storage.
type Store struct {
	kv  storage.KV
	key string
	now func() time.Time
	pub Publisher
	ids *idSource

	loadOnce sync.Once
	ready    chan struct{}

	mu          sync.Mutex
	state       State
	tasks       []Task
	view        View
	lastSaveErr error
	readErr     error
}

// NewStore creates a Store persisting to kv. Call Load before mutating.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   DefaultKey,
		now:   time.Now,
		pub:   nopPublisher{},
		ready: make(chan struct{}),
		view:  View{Filter: FilterAll},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = newIDSource(s.now)
	return s
}

// Key returns the storage key the store writes to.
func (s *Store) Key() string { return s.key }

// Load reads the persisted collection and moves the store to Ready. Missing or
// malformed data leaves the collection empty. When storage itself fails the
// collection is empty and read-only, see Writable. Only the first call has effect.
func (s *Store) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		tasks, payload, readErr := s.read(ctx)

		s.mu.Lock()
		s.tasks = tasks
		s.readErr = readErr
		for _, t := range tasks {
			s.ids.Observe(t.ID)
		}
		s.state = StateReady
		close(s.ready)
		s.mu.Unlock()

		slog.Debug("tasks loaded", "key", s.key, "count", len(tasks))
		s.pub.Publish(events.NewTypedEvent(events.SourceStore, payload))
	})
}

func (s *Store) read(ctx context.Context) ([]Task, LoadedPayload, error) {
	blob, ok, err := s.kv.Load(ctx, s.key)
	if err != nil {
		slog.Error("load tasks failed, store is read-only", "key", s.key, "error", err)
		return []Task{}, LoadedPayload{Recovered: true, ReadOnly: true, Error: err.Error()}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if !ok {
		return []Task{}, LoadedPayload{}, nil
	}
	tasks, err := Decode(blob)
	if err != nil {
		slog.Warn("stored tasks malformed, starting empty", "key", s.key, "error", err)
		return []Task{}, LoadedPayload{Recovered: true, Error: err.Error()}, nil
	}
	return tasks, LoadedPayload{Count: len(tasks)}, nil
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether Load has completed.
func (s *Store) Ready() bool { return s.State() == StateReady }

// WaitReady blocks until Load has completed or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastSaveError returns the error of the latest write-through, or nil once a save succeeds.
func (s *Store) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// Writable reports why mutations would be ignored: ErrNotReady while loading,
// an ErrUnreadable wrap when storage failed to load, nil otherwise.
func (s *Store) Writable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writableLocked()
}

func (s *Store) writableLocked() error {
	if s.state != StateReady {
		return ErrNotReady
	}
	return s.readErr
}

// Check reports why a mutation of id would be ignored: the Writable error,
// ErrNotFound for an unknown id, nil otherwise.
func (s *Store) Check(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return err
	}
	if s.indexOf(id) < 0 {
		return ErrNotFound
	}
	return nil
}

// Add prepends a task with the trimmed text. Blank text is ignored.
func (s *Store) Add(ctx context.Context, text string) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}

	var added Task
	ok := s.mutate(ctx, func() (events.EventPayload, bool) {
		added = Task{
			ID:        s.ids.Next(),
			Text:      text,
			CreatedAt: s.timestamp(),
		}
		s.tasks = append([]Task{added}, s.tasks...)
		return AddedPayload{Task: added.clone()}, true
	})
	if !ok {
		return Task{}, false
	}
	return added.clone(), true
}

// Toggle flips the completed flag, stamping or clearing CompletedAt. The
// returned task is the state after the call, zero when id was not mutable.
func (s *Store) Toggle(ctx context.Context, id ID) (Task, bool) {
	return s.update(ctx, id, ChangeCompleted, func(t *Task) bool {
		t.Completed = !t.Completed
		if t.Completed {
			ts := s.timestamp()
			t.CompletedAt = &ts
		} else {
			t.CompletedAt = nil
		}
		return true
	})
}

// ToggleImportant flips the important flag.
func (s *Store) ToggleImportant(ctx context.Context, id ID) (Task, bool) {
	return s.update(ctx, id, ChangeImportant, func(t *Task) bool {
		t.Important = !t.Important
		return true
	})
}

// Edit replaces the text of a task. Blank text leaves the task untouched.
// Identical text returns the current task with false.
func (s *Store) Edit(ctx context.Context, id ID, text string) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}
	return s.update(ctx, id, ChangeText, func(t *Task) bool {
		if t.Text == text {
			return false
		}
		t.Text = text
		return true
	})
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, id ID) bool {
	return s.mutate(ctx, func() (events.EventPayload, bool) {
		i := s.indexOf(id)
		if i < 0 {
			return nil, false
		}
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		return DeletedPayload{ID: id}, true
	})
}

func (s *Store) update(ctx context.Context, id ID, change Change, fn func(*Task) bool) (Task, bool) {
	var after Task
	ok := s.mutate(ctx, func() (events.EventPayload, bool) {
		i := s.indexOf(id)
		if i < 0 {
			return nil, false
		}
		changed := fn(&s.tasks[i])
		after = s.tasks[i].clone()
		if !changed {
			return nil, false
		}
		return UpdatedPayload{Task: after.clone(), Change: change}, true
	})
	return after, ok
}

// mutate applies fn under the lock and, when it changed the collection,
// persists it and publishes the returned payload.
func (s *Store) mutate(ctx context.Context, fn func() (events.EventPayload, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		slog.Debug("mutation ignored", "key", s.key, "reason", err)
		return false
	}

	payload, changed := fn()
	if !changed {
		return false
	}

	s.persistLocked(ctx)
	s.pub.Publish(events.NewTypedEvent(events.SourceStore, payload))
	return true
}

func (s *Store) persistLocked(ctx context.Context) {
	blob, err := Encode(s.tasks)
	if err == nil {
		// Memory already holds the mutation; storage follows even if ctx is done.
		err = s.kv.Save(context.WithoutCancel(ctx), s.key, blob)
	}
	if err != nil {
		// Memory stays authoritative; the next successful save catches storage up.
		slog.Warn("save tasks failed", "key", s.key, "error", err)
		s.lastSaveErr = err
		s.pub.Publish(events.NewTypedEvent(events.SourceStore, SaveFailedPayload{Key: s.key, Error: err.Error()}))
		return
	}
	s.lastSaveErr = nil
}

func (s *Store) indexOf(id ID) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Tasks returns a copy of the full collection in display order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.tasks, View{})
}

// Get returns the task with the given id.
func (s *Store) Get(id ID) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].clone(), true
}

// Filtered returns the tasks matching v, in display order.
func (s *Store) Filtered(v View) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.tasks, v)
}

// Counts returns counts over the full collection, whatever the current view.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.tasks)
}

// View returns the presentation's current view state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView replaces the view state. It never touches the collection.
func (s *Store) SetView(v View) {
	if v.Filter == "" {
		v.Filter = FilterAll
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// SetSearch updates the search term of the view state.
func (s *Store) SetSearch(term string) {
	s.mu.Lock()
	s.view.Search = term
	s.mu.Unlock()
}

// SetFilter updates the filter mode of the view state.
func (s *Store) SetFilter(mode FilterMode) {
	if mode == "" {
		mode = FilterAll
	}
	s.mu.Lock()
	s.view.Filter = mode
	s.mu.Unlock()
}

// Visible returns the projection of the current view state.
func (s *Store) Visible() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.tasks, s.view)
}
