package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// toolFunc runs a tool against raw JSON arguments. An error is reported to the
// client as a tool error, not a protocol failure.
type toolFunc func(ctx context.Context, store *todos.Store, args json.RawMessage) (any, error)

type tool struct {
	spec ToolSpec
	run  toolFunc
}

// result is the reply of mutating tools. Changed is false for no-ops.
type result struct {
	Changed bool        `json:"changed"`
	Task    *todos.Task `json:"task,omitempty"`
	ID      todos.ID    `json:"id,omitempty"`
}

var idParam = ParamSpec{Type: "integer", Description: "Task id as returned by todo_list", Required: true}

var tools = []tool{
	{
		spec: ToolSpec{
			Name:        "todo_add",
			Description: "Add a task at the top of the list. Blank text is ignored.",
			Parameters: map[string]ParamSpec{
				"text": {Type: "string", Description: "Task text", Required: true},
			},
		},
		run: runAdd,
	},
	{
		spec: ToolSpec{
			Name:        "todo_list",
			Description: "List tasks, newest first, optionally filtered and searched.",
			Parameters: map[string]ParamSpec{
				"filter": {Type: "string", Description: "Filter mode", Enum: filterNames()},
				"search": {Type: "string", Description: "Case-insensitive substring of the task text"},
			},
			ReadOnly: true,
		},
		run: runList,
	},
	{
		spec: ToolSpec{
			Name:        "todo_toggle",
			Description: "Mark a task completed, or active again if it already is.",
			Parameters:  map[string]ParamSpec{"id": idParam},
		},
		run: runUpdate((*todos.Store).Toggle),
	},
	{
		spec: ToolSpec{
			Name:        "todo_toggle_important",
			Description: "Star or unstar a task.",
			Parameters:  map[string]ParamSpec{"id": idParam},
		},
		run: runUpdate((*todos.Store).ToggleImportant),
	},
	{
		spec: ToolSpec{
			Name:        "todo_edit",
			Description: "Replace the text of a task. Blank text is ignored.",
			Parameters: map[string]ParamSpec{
				"id":   idParam,
				"text": {Type: "string", Description: "New task text", Required: true},
			},
		},
		run: runEdit,
	},
	{
		spec: ToolSpec{
			Name:        "todo_delete",
			Description: "Delete a task.",
			Parameters:  map[string]ParamSpec{"id": idParam},
		},
		run: runDelete,
	},
	{
		spec: ToolSpec{
			Name:        "todo_counts",
			Description: "Count all, active, completed and important tasks.",
			Parameters:  map[string]ParamSpec{},
			ReadOnly:    true,
		},
		run: func(_ context.Context, store *todos.Store, _ json.RawMessage) (any, error) {
			return store.Counts(), nil
		},
	},
}

func filterNames() []string {
	names := make([]string, len(todos.FilterModes))
	for i, m := range todos.FilterModes {
		names[i] = string(m)
	}
	return names
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type idArgs struct {
	ID *todos.ID `json:"id"`
}

func (a idArgs) id() (todos.ID, error) {
	if a.ID == nil {
		return 0, errors.New("missing required argument: id")
	}
	return *a.ID, nil
}

func runAdd(ctx context.Context, store *todos.Store, raw json.RawMessage) (any, error) {
	var args struct {
		Text *string `json:"text"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Text == nil {
		return nil, errors.New("missing required argument: text")
	}
	task, ok := store.Add(ctx, *args.Text)
	if !ok {
		return result{}, store.Writable()
	}
	return result{Changed: true, Task: &task}, nil
}

func runList(_ context.Context, store *todos.Store, raw json.RawMessage) (any, error) {
	var args struct {
		Filter string `json:"filter"`
		Search string `json:"search"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	mode, err := todos.ParseFilterMode(args.Filter)
	if err != nil {
		return nil, err
	}
	return store.Filtered(todos.View{Filter: mode, Search: args.Search}), nil
}

func runUpdate(apply func(*todos.Store, context.Context, todos.ID) (todos.Task, bool)) toolFunc {
	return func(ctx context.Context, store *todos.Store, raw json.RawMessage) (any, error) {
		var args idArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		id, err := args.id()
		if err != nil {
			return nil, err
		}
		task, ok := apply(store, ctx, id)
		if !ok {
			return result{}, store.Writable()
		}
		return result{Changed: true, Task: &task}, nil
	}
}

func runEdit(ctx context.Context, store *todos.Store, raw json.RawMessage) (any, error) {
	var args struct {
		idArgs
		Text *string `json:"text"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	id, err := args.id()
	if err != nil {
		return nil, err
	}
	if args.Text == nil {
		return nil, errors.New("missing required argument: text")
	}
	task, ok := store.Edit(ctx, id, *args.Text)
	if !ok {
		return result{}, store.Writable()
	}
	return result{Changed: true, Task: &task}, nil
}

func runDelete(ctx context.Context, store *todos.Store, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	id, err := args.id()
	if err != nil {
		return nil, err
	}
	if !store.Delete(ctx, id) {
		return result{}, store.Writable()
	}
	return result{Changed: true, ID: id}, nil
}
