// Command todo_flow exercises the task lifecycle against a running gateway
// over WebSocket.
//
// It adds a task, toggles and stars it, edits it and deletes it, checking
// each response and that the matching event is broadcast back.
//
// Usage: todo_flow -gateway http://127.0.0.1:PORT
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	wsclient "github.com/dohr-michael/todoglass/clients/ws"
	"github.com/dohr-michael/todoglass/internal/events"
	wsprotocol "github.com/dohr-michael/todoglass/internal/gateway/ws"
	"github.com/dohr-michael/todoglass/internal/todos"
)

func main() {
	gatewayURL := flag.String("gateway", "http://127.0.0.1:18421", "Gateway URL")
	text := flag.String("text", "e2e task", "Text of the task to create")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *gatewayURL, *text); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, gatewayURL, text string) error {
	client, err := wsclient.Dial(ctx, gatewayURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	seen := map[string]int{}
	onEvent := func(f wsprotocol.Frame) { seen[f.Event]++ }

	call := func(method wsprotocol.Method, params any, out any) error {
		res, err := client.Call(method, params, onEvent)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		if res.OK == nil || !*res.OK {
			return fmt.Errorf("%s: %s (%s)", method, res.Error, res.Code)
		}
		if out != nil {
			return json.Unmarshal(res.Payload, out)
		}
		return nil
	}

	var task todos.Task
	if err := call(wsprotocol.MethodAddTodo, wsprotocol.AddParams{Text: text}, &task); err != nil {
		return err
	}
	fmt.Printf("CHECK task added: %s\n", task.ID)
	id := wsprotocol.IDParams{ID: int64(task.ID)}

	if err := call(wsprotocol.MethodToggleTodo, id, &task); err != nil {
		return err
	}
	if !task.Completed || task.CompletedAt == nil {
		return fmt.Errorf("toggle did not complete the task: %+v", task)
	}
	fmt.Println("CHECK task completed")

	if err := call(wsprotocol.MethodToggleImportant, id, &task); err != nil {
		return err
	}
	if !task.Important {
		return fmt.Errorf("star did not mark the task important: %+v", task)
	}
	fmt.Println("CHECK task starred")

	edited := text + " (edited)"
	if err := call(wsprotocol.MethodEditTodo, wsprotocol.EditParams{ID: id.ID, Text: edited}, &task); err != nil {
		return err
	}
	if task.Text != edited {
		return fmt.Errorf("edit: text = %q, want %q", task.Text, edited)
	}
	fmt.Println("CHECK task edited")

	var counts todos.Counts
	if err := call(wsprotocol.MethodCounts, nil, &counts); err != nil {
		return err
	}
	fmt.Printf("CHECK counts: %+v\n", counts)

	if err := call(wsprotocol.MethodDeleteTodo, id, nil); err != nil {
		return err
	}
	fmt.Println("CHECK task deleted")

	// The delete event may arrive after its response.
	if err := call(wsprotocol.MethodCounts, nil, nil); err != nil {
		return err
	}

	for _, want := range []events.EventType{events.EventTodoAdded, events.EventTodoUpdated, events.EventTodoDeleted} {
		if seen[string(want)] == 0 {
			return fmt.Errorf("no %s event received", want)
		}
	}

	fmt.Println("CHECK all flow checks passed")
	return nil
}
