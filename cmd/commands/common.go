package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/todoglass/internal/app"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// setupLogging installs a stderr text handler. Debug wins over level.
func setupLogging(cmd *cli.Command, level slog.Level) {
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openApp loads the config and assembles the store. When load is set the
// initial load has completed on return.
func openApp(ctx context.Context, cmd *cli.Command, load bool) (*app.App, error) {
	cfg, err := app.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, app.Options{Ephemeral: cmd.Bool("ephemeral")})
	if err != nil {
		return nil, err
	}
	if load {
		a.Load(ctx)
	}
	return a, nil
}

// stdout returns the writer commands print to.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func idArg(cmd *cli.Command) (todos.ID, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("usage: todoglass %s <id>", cmd.Name)
	}
	return todos.ParseID(raw)
}

// describe turns store errors into CLI messages.
func describe(id todos.ID, err error) error {
	switch {
	case errors.Is(err, todos.ErrNotFound):
		return fmt.Errorf("no task with id %s", id)
	case errors.Is(err, todos.ErrBlankText):
		return errors.New("task text cannot be empty")
	case errors.Is(err, todos.ErrUnreadable):
		return fmt.Errorf("refusing to write, %w", err)
	default:
		return err
	}
}

// reportSave surfaces a failed write-through. The in-memory change stands but
// the process is about to exit, so it is returned as an error.
func reportSave(a *app.App) error {
	if err := a.Store.LastSaveError(); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func termSize(f *os.File) (int, int, error) {
	return term.GetSize(int(f.Fd()))
}
