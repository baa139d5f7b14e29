package ws

import (
	"context"
	"encoding/json"
	"fmt"

	wsprotocol "github.com/dohr-michael/todoglass/internal/gateway/ws"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// Todos drives the task methods of a running gateway. Failed responses are
// mapped back to the todos sentinel errors.
type Todos struct {
	c *Client
}

// NewTodos wraps a connected client.
func NewTodos(c *Client) *Todos {
	return &Todos{c: c}
}

func (t *Todos) Add(_ context.Context, text string) (todos.Task, error) {
	var task todos.Task
	err := t.call(wsprotocol.MethodAddTodo, wsprotocol.AddParams{Text: text}, &task)
	return task, err
}

func (t *Todos) Toggle(_ context.Context, id todos.ID) (todos.Task, error) {
	var task todos.Task
	err := t.call(wsprotocol.MethodToggleTodo, wsprotocol.IDParams{ID: int64(id)}, &task)
	return task, err
}

func (t *Todos) ToggleImportant(_ context.Context, id todos.ID) (todos.Task, error) {
	var task todos.Task
	err := t.call(wsprotocol.MethodToggleImportant, wsprotocol.IDParams{ID: int64(id)}, &task)
	return task, err
}

func (t *Todos) Edit(_ context.Context, id todos.ID, text string) (todos.Task, error) {
	var task todos.Task
	err := t.call(wsprotocol.MethodEditTodo, wsprotocol.EditParams{ID: int64(id), Text: text}, &task)
	return task, err
}

func (t *Todos) Delete(_ context.Context, id todos.ID) error {
	return t.call(wsprotocol.MethodDeleteTodo, wsprotocol.IDParams{ID: int64(id)}, nil)
}

func (t *Todos) List(filter, search string) ([]todos.Task, error) {
	var list []todos.Task
	err := t.call(wsprotocol.MethodListTodos, wsprotocol.ListParams{Filter: filter, Search: search}, &list)
	return list, err
}

func (t *Todos) Counts() (todos.Counts, error) {
	var c todos.Counts
	err := t.call(wsprotocol.MethodCounts, nil, &c)
	return c, err
}

func (t *Todos) call(method wsprotocol.Method, params, out any) error {
	f, err := t.c.Call(method, params, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if f.OK == nil || !*f.OK {
		return responseError(f)
	}
	if out == nil || len(f.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func responseError(f wsprotocol.Frame) error {
	var sentinel error
	switch f.Code {
	case wsprotocol.CodeNotReady:
		sentinel = todos.ErrNotReady
	case wsprotocol.CodeUnreadable:
		sentinel = todos.ErrUnreadable
	case wsprotocol.CodeNotFound:
		sentinel = todos.ErrNotFound
	case wsprotocol.CodeInvalid:
		sentinel = todos.ErrBlankText
	default:
		return fmt.Errorf("gateway: %s", f.Error)
	}
	return fmt.Errorf("gateway: %w", sentinel)
}
