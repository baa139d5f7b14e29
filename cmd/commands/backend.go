package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/todoglass/clients/ws"
	"github.com/dohr-michael/todoglass/internal/app"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/gateway"
	"github.com/dohr-michael/todoglass/internal/heartbeat"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// heartbeatMaxAge is how old a heartbeat may be before its owner is presumed gone.
const heartbeatMaxAge = 2 * time.Minute

// taskBackend is what the task commands drive: the local store, or the
// gateway that already holds it in memory.
type taskBackend interface {
	Add(ctx context.Context, text string) (todos.Task, error)
	Toggle(ctx context.Context, id todos.ID) (todos.Task, error)
	ToggleImportant(ctx context.Context, id todos.ID) (todos.Task, error)
	Edit(ctx context.Context, id todos.ID, text string) (todos.Task, error)
	Delete(ctx context.Context, id todos.ID) error
	List(filter, search string) ([]todos.Task, error)
	Counts() (todos.Counts, error)
}

var (
	_ taskBackend = (*gateway.TodoHandler)(nil)
	_ taskBackend = (*wsclient.Todos)(nil)
)

// openBackend picks where a task command runs. A live gateway owns the
// collection, so requests go through it; otherwise the store is opened
// locally. A running dashboard also holds the collection but has no endpoint,
// so writes are refused while it is up. The returned func releases the
// backend and reports a failed local save.
func openBackend(ctx context.Context, cmd *cli.Command, write bool) (taskBackend, func() error, error) {
	if !cmd.Bool("ephemeral") {
		cfg, err := app.LoadConfig(cmd.String("config"))
		if err != nil {
			return nil, nil, err
		}
		if hb := liveHeartbeat(config.HeartbeatPath(), cfg.Storage); hb != nil {
			client, err := wsclient.Dial(ctx, hb.URL())
			if err != nil {
				return nil, nil, fmt.Errorf("gateway (PID %d) is running but unreachable: %w", hb.PID, err)
			}
			slog.Debug("routing through gateway", "url", hb.URL())
			return wsclient.NewTodos(client), client.Close, nil
		}
		if hb := liveHeartbeat(config.DashboardPath(), cfg.Storage); write && hb != nil {
			return nil, nil, fmt.Errorf("the dashboard (PID %d) has the tasks open; make the change there or quit it first", hb.PID)
		}
	}

	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return nil, nil, err
	}
	release := func() error {
		defer a.Close()
		return reportSave(a)
	}
	return gateway.NewTodoHandler(a.Store), release, nil
}

// liveHeartbeat returns the heartbeat at path when its owner is alive and
// serves the same storage as cfg.
func liveHeartbeat(path string, cfg config.StorageConfig) *heartbeat.Heartbeat {
	status, hb, err := heartbeat.Check(path, heartbeatMaxAge)
	if err != nil {
		slog.Debug("heartbeat unreadable", "path", path, "error", err)
		return nil
	}
	if status != heartbeat.StatusAlive {
		return nil
	}
	if !hb.Serves(cfg.Driver, cfg.Path, cfg.Key) {
		slog.Debug("heartbeat owner uses other storage", "path", path, "driver", hb.Driver, "storage", hb.Path)
		return nil
	}
	return hb
}

// finish releases the backend. The operation error wins over a release error.
func finish(release func() error, err error) error {
	if rerr := release(); err == nil {
		return rerr
	}
	return err
}
