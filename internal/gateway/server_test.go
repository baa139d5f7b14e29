package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/gateway/ws"
	"github.com/dohr-michael/todoglass/internal/storage"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// waitForEvents polls the bus history until at least n events are present.
func waitForEvents(bus *events.Bus, n int) {
	for i := 0; i < 200; i++ {
		if len(bus.History(100)) >= n {
			return
		}
		runtime.Gosched()
		time.Sleep(time.Millisecond)
	}
}

func newTestServer(t *testing.T, load bool) *Server {
	t.Helper()
	bus := events.NewBus(64)
	t.Cleanup(func() { bus.Close() })

	store := todos.NewStore(storage.NewMemory(nil), todos.WithPublisher(bus))
	if load {
		store.Load(context.Background())
	}
	srv := NewServer(store, bus, "localhost", 0)
	t.Cleanup(func() { srv.hub.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, true)

	w := do(t, srv, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["state"] != "ready" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestTodosLifecycle(t *testing.T) {
	srv := newTestServer(t, true)

	w := do(t, srv, http.MethodPost, "/api/todos", `{"text":"  Buy apples  "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", w.Code, w.Body)
	}
	added := decode[todos.Task](t, w)
	if added.Text != "Buy apples" || added.Completed || added.Important {
		t.Fatalf("unexpected task %+v", added)
	}
	base := fmt.Sprintf("/api/todos/%d", added.ID)

	w = do(t, srv, http.MethodPost, base+"/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", w.Code)
	}
	if got := decode[todos.Task](t, w); !got.Completed || got.CompletedAt == nil {
		t.Errorf("toggle did not complete task: %+v", got)
	}

	w = do(t, srv, http.MethodPost, base+"/important", "")
	if got := decode[todos.Task](t, w); !got.Important {
		t.Errorf("important not set: %+v", got)
	}

	w = do(t, srv, http.MethodPatch, base, `{"text":"Buy pears"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d", w.Code)
	}
	if got := decode[todos.Task](t, w); got.Text != "Buy pears" {
		t.Errorf("edit text = %q", got.Text)
	}

	w = do(t, srv, http.MethodGet, "/api/counts", "")
	if got := decode[todos.Counts](t, w); got != (todos.Counts{Total: 1, Completed: 1, Important: 1}) {
		t.Errorf("counts = %+v", got)
	}

	w = do(t, srv, http.MethodDelete, base, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = do(t, srv, http.MethodDelete, base, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestHandleList_FilterAndSearch(t *testing.T) {
	srv := newTestServer(t, true)
	for _, text := range []string{"Buy apples", "Walk dog", "Call Amy"} {
		do(t, srv, http.MethodPost, "/api/todos", fmt.Sprintf(`{"text":%q}`, text))
	}

	w := do(t, srv, http.MethodGet, "/api/todos?filter=active&search=a", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[[]todos.Task](t, w)
	if len(got) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(got))
	}
	if got[0].Text != "Call Amy" {
		t.Errorf("expected newest first, got %q", got[0].Text)
	}

	w = do(t, srv, http.MethodGet, "/api/todos?search=AMY", "")
	if got := decode[[]todos.Task](t, w); len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}

	w = do(t, srv, http.MethodGet, "/api/todos?filter=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown filter: expected 400, got %d", w.Code)
	}
}

func TestHandleErrors(t *testing.T) {
	srv := newTestServer(t, true)
	w := do(t, srv, http.MethodPost, "/api/todos", `{"text":"Keep"}`)
	id := decode[todos.Task](t, w).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank add", http.MethodPost, "/api/todos", `{"text":"   "}`, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/todos", `{`, http.StatusBadRequest},
		{"blank edit", http.MethodPatch, fmt.Sprintf("/api/todos/%d", id), `{"text":""}`, http.StatusUnprocessableEntity},
		{"unknown toggle", http.MethodPost, "/api/todos/1/toggle", "", http.StatusNotFound},
		{"unknown important", http.MethodPost, "/api/todos/1/important", "", http.StatusNotFound},
		{"unknown edit", http.MethodPatch, "/api/todos/1", `{"text":"x"}`, http.StatusNotFound},
		{"bad id", http.MethodDelete, "/api/todos/abc", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/events?limit=-1", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
		})
	}

	w = do(t, srv, http.MethodGet, "/api/todos", "")
	if got := decode[[]todos.Task](t, w); len(got) != 1 || got[0].Text != "Keep" {
		t.Errorf("failed requests changed the collection: %+v", got)
	}
}

func TestNotReadyReturns503(t *testing.T) {
	srv := newTestServer(t, false)

	for _, path := range []string{"/api/todos", "/api/counts"} {
		if w := do(t, srv, http.MethodGet, path, ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s: expected 503, got %d", path, w.Code)
		}
	}
	if w := do(t, srv, http.MethodPost, "/api/todos", `{"text":"early"}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("POST: expected 503, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/api/todos/1/toggle", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("toggle: expected 503, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/api/health", ""); w.Code != http.StatusOK {
		t.Errorf("health must stay up while loading, got %d", w.Code)
	}
}

// unreadableKV holds a blob it cannot return, like a sealed value under the wrong key.
type unreadableKV struct {
	*storage.Memory
}

func (unreadableKV) Load(context.Context, string) (string, bool, error) {
	return "", false, errors.New("open: wrong key")
}

func TestUnreadableStoreRefusesWrites(t *testing.T) {
	bus := events.NewBus(64)
	t.Cleanup(func() { bus.Close() })
	kv := unreadableKV{storage.NewMemory(map[string]string{todos.DefaultKey: "sealed"})}
	store := todos.NewStore(kv, todos.WithPublisher(bus))
	store.Load(context.Background())
	srv := NewServer(store, bus, "localhost", 0)
	t.Cleanup(func() { srv.hub.Close() })

	w := do(t, srv, http.MethodPost, "/api/todos", `{"text":"overwrite"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST: expected 503, got %d: %s", w.Code, w.Body)
	}
	if body := decode[map[string]string](t, w); body["code"] != "unreadable" {
		t.Errorf("code = %q, want unreadable", body["code"])
	}
	if w := do(t, srv, http.MethodDelete, "/api/todos/1", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("DELETE: expected 503, got %d", w.Code)
	}
	health := decode[map[string]any](t, do(t, srv, http.MethodGet, "/api/health", ""))
	if health["read_only"] != true {
		t.Errorf("health should report read_only, got %v", health)
	}
	if got, _, _ := kv.Memory.Load(context.Background(), todos.DefaultKey); got != "sealed" {
		t.Errorf("stored blob replaced with %q", got)
	}
}

func TestEditIdenticalTextReturnsTask(t *testing.T) {
	srv := newTestServer(t, true)
	w := do(t, srv, http.MethodPost, "/api/todos", `{"text":"Same"}`)
	id := decode[todos.Task](t, w).ID

	w = do(t, srv, http.MethodPatch, fmt.Sprintf("/api/todos/%d", id), `{"text":" Same "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if got := decode[todos.Task](t, w); got.ID != id || got.Text != "Same" {
		t.Errorf("edit returned %+v", got)
	}
}

func TestHandleEvents_LimitParam(t *testing.T) {
	srv := newTestServer(t, true)

	for i := 0; i < 10; i++ {
		srv.bus.Publish(events.NewEvent(events.EventTodoAdded, events.SourceGateway, map[string]any{"i": i}))
	}
	waitForEvents(srv.bus, 10)

	w := do(t, srv, http.MethodGet, "/api/events?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := decode[[]map[string]any](t, w); len(body) != 5 {
		t.Fatalf("expected 5 events with limit=5, got %d", len(body))
	}
}

func TestWebSocket_RequestAndEvents(t *testing.T) {
	srv := newTestServer(t, true)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(hs.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	send := func(f ws.Frame) {
		data, _ := ws.MarshalFrame(f)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// next reads frames until one matches.
	next := func(match func(ws.Frame) bool) ws.Frame {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			f, err := ws.UnmarshalFrame(data)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if match(f) {
				return f
			}
		}
	}
	response := func(id string) func(ws.Frame) bool {
		return func(f ws.Frame) bool { return f.Type == ws.FrameTypeResponse && f.ID == id }
	}

	req, _ := ws.NewRequestFrame("r1", ws.MethodAddTodo, ws.AddParams{Text: "From socket"})
	send(req)
	res := next(response("r1"))
	if res.OK == nil || !*res.OK {
		t.Fatalf("add failed: %+v", res)
	}
	var task todos.Task
	if err := json.Unmarshal(res.Payload, &task); err != nil {
		t.Fatal(err)
	}

	ev := next(func(f ws.Frame) bool { return f.Type == ws.FrameTypeEvent && f.Event == string(events.EventTodoAdded) })
	if !strings.Contains(string(ev.Payload), "From socket") {
		t.Errorf("event payload missing task: %s", ev.Payload)
	}

	req, _ = ws.NewRequestFrame("r2", ws.MethodToggleTodo, ws.IDParams{ID: int64(task.ID) + 1})
	send(req)
	res = next(response("r2"))
	if res.OK == nil || *res.OK || res.Code != "not_found" {
		t.Errorf("expected not_found error, got %+v", res)
	}

	req, _ = ws.NewRequestFrame("r3", ws.MethodCounts, nil)
	send(req)
	res = next(response("r3"))
	var counts todos.Counts
	if err := json.Unmarshal(res.Payload, &counts); err != nil {
		t.Fatal(err)
	}
	if counts.Total != 1 || counts.Active != 1 {
		t.Errorf("counts = %+v", counts)
	}

	send(ws.Frame{Type: ws.FrameTypeRequest, ID: "r4", Method: "launch_rockets"})
	res = next(response("r4"))
	if res.Code != "bad_request" {
		t.Errorf("unknown method: got %+v", res)
	}
}
