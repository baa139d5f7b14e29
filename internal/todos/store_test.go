package todos

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/storage"
)

// recordingKV wraps a Memory KV and records every Save.
type recordingKV struct {
	*storage.Memory

	mu       sync.Mutex
	saves    []string
	saveErr  error
	loadErr  error
	loadGate chan struct{}
}

func newRecordingKV(seed map[string]string) *recordingKV {
	return &recordingKV{Memory: storage.NewMemory(seed)}
}

func (r *recordingKV) Load(ctx context.Context, key string) (string, bool, error) {
	if r.loadGate != nil {
		<-r.loadGate
	}
	if r.loadErr != nil {
		return "", false, r.loadErr
	}
	return r.Memory.Load(ctx, key)
}

func (r *recordingKV) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.saves = append(r.saves, value)
	err := r.saveErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.Memory.Save(ctx, key, value)
}

func (r *recordingKV) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var ctxBG = context.Background()

var t0 = time.Date(2025, 3, 14, 9, 26, 53, 589_793_238, time.UTC)

func newLoadedStore(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()
	s := NewStore(kv, append([]Option{WithClock(fixedClock(t0))}, opts...)...)
	s.Load(context.Background())
	if !s.Ready() {
		t.Fatal("store should be ready after Load")
	}
	return s
}

func texts(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestStoreAddPrependsTrimmed(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)
	ctx := context.Background()

	first, ok := s.Add(ctx, "  Buy apples  ")
	if !ok {
		t.Fatal("Add should succeed")
	}
	if first.Text != "Buy apples" {
		t.Errorf("Text = %q, want %q", first.Text, "Buy apples")
	}
	if first.Completed || first.Important || first.CompletedAt != nil {
		t.Errorf("new task should have default flags: %+v", first)
	}
	if !first.CreatedAt.Equal(t0.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, t0.Truncate(time.Millisecond))
	}

	s.Add(ctx, "Call Amy")

	if diff := cmp.Diff([]string{"Call Amy", "Buy apples"}, texts(s.Tasks())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got := kv.saveCount(); got != 2 {
		t.Errorf("saves = %d, want 2", got)
	}
}

func TestStoreAddRejectsBlank(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)

	for _, text := range []string{"", "   ", "\t\n"} {
		if _, ok := s.Add(context.Background(), text); ok {
			t.Errorf("Add(%q) should be a no-op", text)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("collection should stay empty, got %d tasks", len(s.Tasks()))
	}
	if got := kv.saveCount(); got != 0 {
		t.Errorf("blank add must not save, got %d saves", got)
	}
}

func TestStoreFreshIDsWithinSameMillisecond(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	ctx := context.Background()

	seen := map[ID]bool{}
	for i := 0; i < 50; i++ {
		task, ok := s.Add(ctx, "task")
		if !ok {
			t.Fatal("Add failed")
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %d after %d adds", task.ID, i)
		}
		seen[task.ID] = true
	}
}

func TestStoreFreshIDsAboveLoaded(t *testing.T) {
	future := ID(t0.Add(time.Hour).UnixMilli())
	blob, _ := Encode([]Task{{ID: future, Text: "from the future", CreatedAt: t0}})
	s := newLoadedStore(t, newRecordingKV(map[string]string{DefaultKey: blob}))

	task, _ := s.Add(context.Background(), "new")
	if task.ID <= future {
		t.Errorf("new id %d should be greater than loaded id %d", task.ID, future)
	}
}

func TestStoreToggleIsItsOwnInverse(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	ctx := context.Background()
	task, _ := s.Add(ctx, "Pay bills")

	done, ok := s.Toggle(ctx, task.ID)
	if !ok {
		t.Fatal("Toggle should apply")
	}
	if stored, _ := s.Get(task.ID); !cmp.Equal(done, stored) {
		t.Errorf("Toggle returned %+v, store holds %+v", done, stored)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", done)
	}

	s.Toggle(ctx, task.ID)
	back, _ := s.Get(task.ID)
	if diff := cmp.Diff(task, back); diff != "" {
		t.Errorf("double toggle should restore the task (-want +got):\n%s", diff)
	}
}

func TestStoreToggleImportant(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	ctx := context.Background()
	task, _ := s.Add(ctx, "Call Amy")

	s.ToggleImportant(ctx, task.ID)
	got, _ := s.Get(task.ID)
	if !got.Important {
		t.Error("expected important after toggle")
	}
	s.ToggleImportant(ctx, task.ID)
	got, _ = s.Get(task.ID)
	if got.Important {
		t.Error("expected not important after second toggle")
	}
}

func TestStoreEdit(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)
	ctx := context.Background()
	task, _ := s.Add(ctx, "Buy apples")

	got, ok := s.Edit(ctx, task.ID, "  Buy pears ")
	if !ok {
		t.Fatal("Edit should apply")
	}
	if got.Text != "Buy pears" {
		t.Errorf("Text = %q, want %q", got.Text, "Buy pears")
	}

	saves := kv.saveCount()
	if _, ok := s.Edit(ctx, task.ID, "   "); ok {
		t.Error("blank edit should be a no-op")
	}
	same, ok := s.Edit(ctx, task.ID, "Buy pears")
	if ok {
		t.Error("edit to identical text should be a no-op")
	}
	if same.ID != task.ID || same.Text != "Buy pears" {
		t.Errorf("identical edit should return the current task, got %+v", same)
	}
	if kv.saveCount() != saves {
		t.Errorf("no-op edits must not save")
	}
}

func TestStoreDelete(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	ctx := context.Background()
	a, _ := s.Add(ctx, "a")
	b, _ := s.Add(ctx, "b")
	c, _ := s.Add(ctx, "c")

	if !s.Delete(ctx, b.ID) {
		t.Fatal("Delete should apply")
	}
	if diff := cmp.Diff([]string{"c", "a"}, texts(s.Tasks())); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}
	if _, ok := s.Get(b.ID); ok {
		t.Error("deleted task still present")
	}
	for _, id := range []ID{a.ID, c.ID} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("task %d should survive deleting its neighbour", id)
		}
	}
}

func TestStoreUnknownIDIsNoOp(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)
	ctx := context.Background()
	s.Add(ctx, "only")

	before, _ := Encode(s.Tasks())
	saves := kv.saveCount()

	const unknown ID = 42
	if _, ok := s.Toggle(ctx, unknown); ok {
		t.Error("Toggle on an unknown id must report no change")
	}
	if _, ok := s.ToggleImportant(ctx, unknown); ok {
		t.Error("ToggleImportant on an unknown id must report no change")
	}
	if task, ok := s.Edit(ctx, unknown, "x"); ok || task.ID != 0 {
		t.Errorf("Edit on an unknown id = %+v, %v", task, ok)
	}
	if s.Delete(ctx, unknown) {
		t.Error("Delete on an unknown id must report no change")
	}

	after, _ := Encode(s.Tasks())
	if before != after {
		t.Errorf("collection changed:\nbefore %s\nafter  %s", before, after)
	}
	if kv.saveCount() != saves {
		t.Error("no-ops must not save")
	}
}

func TestStoreWriteThroughMatchesMemory(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)
	ctx := context.Background()

	a, _ := s.Add(ctx, "a")
	s.Add(ctx, "b")
	s.Toggle(ctx, a.ID)

	stored, ok, err := kv.Memory.Load(ctx, DefaultKey)
	if err != nil || !ok {
		t.Fatalf("stored blob missing: ok=%v err=%v", ok, err)
	}
	decoded, err := Decode(stored)
	if err != nil {
		t.Fatalf("Decode stored blob: %v", err)
	}
	if diff := cmp.Diff(s.Tasks(), decoded); diff != "" {
		t.Errorf("stored blob differs from memory (-memory +stored):\n%s", diff)
	}
}

func TestStoreLoadsPersistedTasks(t *testing.T) {
	want := []Task{
		{ID: 3, Text: "Call Amy", CreatedAt: t0},
		{ID: 2, Text: "Pay bills", Completed: true, CreatedAt: t0},
		{ID: 1, Text: "Buy apples", Important: true, CreatedAt: t0},
	}
	blob, _ := Encode(want)
	s := newLoadedStore(t, newRecordingKV(map[string]string{DefaultKey: blob}))

	if diff := cmp.Diff(want, s.Tasks()); diff != "" {
		t.Errorf("loaded tasks (-want +got):\n%s", diff)
	}
}

func TestStoreMalformedBlobStartsEmpty(t *testing.T) {
	for name, blob := range map[string]string{
		"not json":     "{{{",
		"object":       `{"id":1,"text":"X"}`,
		"missing text": `[{"id":1}]`,
		"duplicate":    `[{"id":1,"text":"a"},{"id":1,"text":"b"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			pub := &recordingPublisher{}
			kv := newRecordingKV(map[string]string{DefaultKey: blob})
			s := newLoadedStore(t, kv, WithPublisher(pub))

			if n := len(s.Tasks()); n != 0 {
				t.Errorf("expected empty collection, got %d tasks", n)
			}
			if kv.saveCount() != 0 {
				t.Error("loading must not save")
			}
			if len(pub.events) != 1 {
				t.Fatalf("expected one loaded event, got %v", pub.types())
			}
			payload, ok := events.ExtractPayload[LoadedPayload](pub.events[0])
			if !ok || !payload.Recovered {
				t.Errorf("loaded payload should flag recovery, got %+v", payload)
			}
		})
	}
}

func TestStoreLoadErrorIsReadOnly(t *testing.T) {
	blob, _ := Encode([]Task{{ID: 1, Text: "keep me", CreatedAt: t0}})
	pub := &recordingPublisher{}
	kv := newRecordingKV(map[string]string{DefaultKey: blob})
	kv.loadErr = errors.New("cipher: message authentication failed")
	s := newLoadedStore(t, kv, WithPublisher(pub))
	ctx := context.Background()

	if len(s.Tasks()) != 0 {
		t.Error("expected empty collection")
	}
	if err := s.Writable(); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Writable = %v, want ErrUnreadable", err)
	}
	if _, ok := s.Add(ctx, "would overwrite"); ok {
		t.Error("Add must be refused when storage could not be read")
	}
	if err := s.Check(1); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Check = %v, want ErrUnreadable", err)
	}
	if kv.saveCount() != 0 {
		t.Errorf("an unreadable store must never save, got %d saves", kv.saveCount())
	}
	stored, _, _ := kv.Memory.Load(ctx, DefaultKey)
	if stored != blob {
		t.Errorf("stored blob was replaced:\n got %s\nwant %s", stored, blob)
	}

	payload, ok := events.ExtractPayload[LoadedPayload](pub.events[0])
	if !ok || !payload.ReadOnly {
		t.Errorf("loaded payload should flag read-only, got %+v", payload)
	}
}

func TestStoreSaveOutlivesCancelledContext(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task, ok := s.Add(ctx, "client hung up")
	if !ok {
		t.Fatal("Add should apply")
	}
	if err := s.LastSaveError(); err != nil {
		t.Fatalf("LastSaveError = %v, want nil", err)
	}
	stored, found, _ := kv.Memory.Load(context.Background(), DefaultKey)
	if !found {
		t.Fatal("blob was not saved")
	}
	decoded, _ := Decode(stored)
	if len(decoded) != 1 || decoded[0].ID != task.ID {
		t.Errorf("stored = %+v, want the added task", decoded)
	}
}

func TestStoreNoSaveBeforeLoad(t *testing.T) {
	blob, _ := Encode([]Task{{ID: 1, Text: "X", CreatedAt: t0}})
	kv := newRecordingKV(map[string]string{DefaultKey: blob})
	kv.loadGate = make(chan struct{})

	s := NewStore(kv, WithClock(fixedClock(t0)))
	ctx := context.Background()

	loaded := make(chan struct{})
	go func() {
		s.Load(ctx)
		close(loaded)
	}()

	if s.Ready() {
		t.Fatal("store should still be loading")
	}
	if _, ok := s.Add(ctx, "too early"); ok {
		t.Error("Add during load must be ignored")
	}
	_, toggled := s.Toggle(ctx, 1)
	_, edited := s.Edit(ctx, 1, "Y")
	_, starred := s.ToggleImportant(ctx, 1)
	if s.Delete(ctx, 1) || toggled || edited || starred {
		t.Error("mutations during load must be ignored")
	}
	if kv.saveCount() != 0 {
		t.Fatalf("no save may happen before load resolves, got %d", kv.saveCount())
	}
	if err := s.Check(1); !errors.Is(err, ErrNotReady) {
		t.Errorf("Check during load = %v, want ErrNotReady", err)
	}

	close(kv.loadGate)
	<-loaded

	stored, _, _ := kv.Memory.Load(ctx, DefaultKey)
	if stored != blob {
		t.Errorf("stored blob regressed:\n got %s\nwant %s", stored, blob)
	}
	if diff := cmp.Diff([]string{"X"}, texts(s.Tasks())); diff != "" {
		t.Errorf("loaded collection (-want +got):\n%s", diff)
	}
}

func TestStoreWaitReady(t *testing.T) {
	s := NewStore(newRecordingKV(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.WaitReady(ctx); err == nil {
		t.Fatal("WaitReady should time out before Load")
	}

	s.Load(context.Background())
	s.Load(context.Background())
	if err := s.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady after Load: %v", err)
	}
}

func TestStoreSaveFailureKeepsMemory(t *testing.T) {
	pub := &recordingPublisher{}
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv, WithPublisher(pub))
	ctx := context.Background()

	kv.saveErr = errors.New("quota exceeded")
	task, ok := s.Add(ctx, "survives")
	if !ok {
		t.Fatal("Add should apply in memory even when saving fails")
	}
	if _, found := s.Get(task.ID); !found {
		t.Error("task should remain in memory")
	}
	if s.LastSaveError() == nil {
		t.Error("LastSaveError should report the failure")
	}

	var sawFailure bool
	for _, typ := range pub.types() {
		if typ == events.EventTodosSaveFailed {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Errorf("expected a save_failed event, got %v", pub.types())
	}

	kv.saveErr = nil
	s.Add(ctx, "recovers")
	if s.LastSaveError() != nil {
		t.Errorf("LastSaveError should clear after a successful save, got %v", s.LastSaveError())
	}
	stored, _, _ := kv.Memory.Load(ctx, DefaultKey)
	decoded, _ := Decode(stored)
	if len(decoded) != 2 {
		t.Errorf("storage should catch up with memory, got %d tasks", len(decoded))
	}
}

func TestStorePublishesMutationEvents(t *testing.T) {
	pub := &recordingPublisher{}
	s := newLoadedStore(t, newRecordingKV(nil), WithPublisher(pub))
	ctx := context.Background()

	task, _ := s.Add(ctx, "a")
	s.Toggle(ctx, task.ID)
	s.Edit(ctx, task.ID, "b")
	s.Delete(ctx, task.ID)

	want := []events.EventType{
		events.EventTodosLoaded,
		events.EventTodoAdded,
		events.EventTodoUpdated,
		events.EventTodoUpdated,
		events.EventTodoDeleted,
	}
	if diff := cmp.Diff(want, pub.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	upd, ok := events.ExtractPayload[UpdatedPayload](pub.events[3])
	if !ok || upd.Change != ChangeText || upd.Task.Text != "b" {
		t.Errorf("edit payload = %+v", upd)
	}
}

func TestStoreViewStateDoesNotMutate(t *testing.T) {
	kv := newRecordingKV(nil)
	s := newLoadedStore(t, kv)
	ctx := context.Background()
	s.Add(ctx, "Buy apples")
	s.Add(ctx, "Pay bills")
	saves := kv.saveCount()

	s.SetSearch("APPLE")
	s.SetFilter(FilterActive)

	if got := s.View(); got != (View{Search: "APPLE", Filter: FilterActive}) {
		t.Errorf("View = %+v", got)
	}
	if diff := cmp.Diff([]string{"Buy apples"}, texts(s.Visible())); diff != "" {
		t.Errorf("Visible (-want +got):\n%s", diff)
	}
	if len(s.Tasks()) != 2 || kv.saveCount() != saves {
		t.Error("view changes must not touch the collection or storage")
	}

	s.SetView(View{})
	if s.View().Filter != FilterAll {
		t.Errorf("empty filter should normalise to all, got %q", s.View().Filter)
	}
}

func TestStoreProjectionsReturnCopies(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	ctx := context.Background()
	task, _ := s.Add(ctx, "a")
	s.Toggle(ctx, task.ID)

	got := s.Tasks()
	got[0].Text = "mutated"
	*got[0].CompletedAt = time.Time{}

	fresh, _ := s.Get(task.ID)
	if fresh.Text != "a" || fresh.CompletedAt.IsZero() {
		t.Errorf("store state leaked through projection: %+v", fresh)
	}
}

func TestStoreCheck(t *testing.T) {
	s := newLoadedStore(t, newRecordingKV(nil))
	task, _ := s.Add(ctxBG, "Buy apples")

	if err := s.Check(task.ID); err != nil {
		t.Errorf("Check(existing) = %v", err)
	}
	if err := s.Check(task.ID + 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Check(unknown) = %v, want ErrNotFound", err)
	}
}
