package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dohr-michael/todoglass/internal/gateway/ws"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// errBadParams marks request payloads that could not be decoded.
var errBadParams = errors.New("invalid params")

// TodoHandler turns store intents into results or classified errors. It backs
// both the REST routes and the WebSocket request methods.
type TodoHandler struct {
	store *todos.Store
}

// NewTodoHandler creates a handler over store.
func NewTodoHandler(store *todos.Store) *TodoHandler {
	return &TodoHandler{store: store}
}

// Add creates a task.
func (h *TodoHandler) Add(ctx context.Context, text string) (todos.Task, error) {
	if strings.TrimSpace(text) == "" {
		return todos.Task{}, todos.ErrBlankText
	}
	task, ok := h.store.Add(ctx, text)
	if !ok {
		if err := h.store.Writable(); err != nil {
			return todos.Task{}, err
		}
		return todos.Task{}, todos.ErrNotReady
	}
	return task, nil
}

// Toggle flips the completed flag of id.
func (h *TodoHandler) Toggle(ctx context.Context, id todos.ID) (todos.Task, error) {
	return h.result(id)(h.store.Toggle(ctx, id))
}

// ToggleImportant flips the important flag of id.
func (h *TodoHandler) ToggleImportant(ctx context.Context, id todos.ID) (todos.Task, error) {
	return h.result(id)(h.store.ToggleImportant(ctx, id))
}

// Edit replaces the text of id. Identical text is accepted and changes nothing.
func (h *TodoHandler) Edit(ctx context.Context, id todos.ID, text string) (todos.Task, error) {
	if strings.TrimSpace(text) == "" {
		return todos.Task{}, todos.ErrBlankText
	}
	return h.result(id)(h.store.Edit(ctx, id, text))
}

// Delete removes id.
func (h *TodoHandler) Delete(ctx context.Context, id todos.ID) error {
	if h.store.Delete(ctx, id) {
		return nil
	}
	if err := h.store.Check(id); err != nil {
		return err
	}
	return todos.ErrNotFound
}

// List returns the tasks matching filter and search.
func (h *TodoHandler) List(filter, search string) ([]todos.Task, error) {
	if !h.store.Ready() {
		return nil, todos.ErrNotReady
	}
	mode, err := todos.ParseFilterMode(filter)
	if err != nil {
		return nil, err
	}
	return h.store.Filtered(todos.View{Filter: mode, Search: search}), nil
}

// Counts returns the collection counts.
func (h *TodoHandler) Counts() (todos.Counts, error) {
	if !h.store.Ready() {
		return todos.Counts{}, todos.ErrNotReady
	}
	return h.store.Counts(), nil
}

// result classifies the outcome of a store update. The store returns the
// task as it was left by the mutation, so a zero id means nothing was found
// or the store refused the write.
func (h *TodoHandler) result(id todos.ID) func(todos.Task, bool) (todos.Task, error) {
	return func(task todos.Task, _ bool) (todos.Task, error) {
		if task.ID != 0 {
			return task, nil
		}
		if err := h.store.Check(id); err != nil {
			return todos.Task{}, err
		}
		return todos.Task{}, todos.ErrNotFound
	}
}

// HandleRequest implements ws.Handler.
func (h *TodoHandler) HandleRequest(ctx context.Context, method ws.Method, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, method, params)
	if err != nil {
		return nil, &ws.RequestError{Code: errorCode(err), Err: err}
	}
	return result, nil
}

func (h *TodoHandler) dispatch(ctx context.Context, method ws.Method, params json.RawMessage) (any, error) {
	switch method {
	case ws.MethodAddTodo:
		var p ws.AddParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.Add(ctx, p.Text)

	case ws.MethodToggleTodo, ws.MethodToggleImportant, ws.MethodDeleteTodo:
		var p ws.IDParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		id := todos.ID(p.ID)
		switch method {
		case ws.MethodToggleTodo:
			return h.Toggle(ctx, id)
		case ws.MethodToggleImportant:
			return h.ToggleImportant(ctx, id)
		default:
			if err := h.Delete(ctx, id); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": id}, nil
		}

	case ws.MethodEditTodo:
		var p ws.EditParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.Edit(ctx, todos.ID(p.ID), p.Text)

	case ws.MethodListTodos:
		var p ws.ListParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.List(p.Filter, p.Search)

	case ws.MethodCounts:
		return h.Counts()

	default:
		return nil, fmt.Errorf("%w: unknown method %q", errBadParams, method)
	}
}

// decodeParams accepts absent params as the zero value.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadParams, err)
	}
	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, todos.ErrNotReady):
		return ws.CodeNotReady
	case errors.Is(err, todos.ErrUnreadable):
		return ws.CodeUnreadable
	case errors.Is(err, todos.ErrNotFound):
		return ws.CodeNotFound
	case errors.Is(err, todos.ErrBlankText):
		return ws.CodeInvalid
	case errors.Is(err, errBadParams), errors.Is(err, todos.ErrUnknownFilter):
		return ws.CodeBadRequest
	default:
		return ws.CodeInternal
	}
}

func httpStatus(err error) int {
	switch errorCode(err) {
	case ws.CodeNotReady, ws.CodeUnreadable:
		return http.StatusServiceUnavailable
	case ws.CodeNotFound:
		return http.StatusNotFound
	case ws.CodeInvalid:
		return http.StatusUnprocessableEntity
	case ws.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
