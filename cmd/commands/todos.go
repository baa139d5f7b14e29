package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/todos"
)

const cliDateLayout = "2006-01-02 15:04"

// NewAddCommand returns the add subcommand.
func NewAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a task",
		ArgsUsage: "<text...>",
		Action:    runAdd,
	}
}

// NewListCommand returns the list subcommand.
func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tasks, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "all, active, completed or important",
				Value:   string(todos.FilterAll),
			},
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Case-insensitive text search",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON",
			},
		},
		Action: runList,
	}
}

// NewDoneCommand returns the done subcommand.
func NewDoneCommand() *cli.Command {
	return &cli.Command{
		Name:      "done",
		Usage:     "Toggle a task between active and completed",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runUpdate(ctx, cmd, taskBackend.Toggle)
		},
	}
}

// NewStarCommand returns the star subcommand.
func NewStarCommand() *cli.Command {
	return &cli.Command{
		Name:      "star",
		Usage:     "Toggle the important flag of a task",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runUpdate(ctx, cmd, taskBackend.ToggleImportant)
		},
	}
}

// NewEditCommand returns the edit subcommand.
func NewEditCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace the text of a task",
		ArgsUsage: "<id> <text...>",
		Action:    runEdit,
	}
}

// NewRemoveCommand returns the rm subcommand.
func NewRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a task",
		ArgsUsage: "<id>",
		Action:    runRemove,
	}
}

// NewStatsCommand returns the stats subcommand.
func NewStatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show task counts",
		Action: runStats,
	}
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	text := strings.Join(cmd.Args().Slice(), " ")
	b, release, err := openBackend(ctx, cmd, true)
	if err != nil {
		return err
	}

	task, err := b.Add(ctx, text)
	if err := finish(release, err); err != nil {
		return describe(0, err)
	}
	fmt.Fprintf(stdout(cmd), "Added %s: %s\n", task.ID, task.Text)
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	b, release, err := openBackend(ctx, cmd, false)
	if err != nil {
		return err
	}

	list, err := b.List(cmd.String("filter"), cmd.String("search"))
	if err := finish(release, err); err != nil {
		return err
	}

	out := stdout(cmd)
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		mode, _ := todos.ParseFilterMode(cmd.String("filter"))
		if (todos.View{Search: cmd.String("search"), Filter: mode}).IsDefault() {
			fmt.Fprintln(out, "No tasks yet. Add a task to get started!")
		} else {
			fmt.Fprintln(out, "No tasks match your criteria.")
		}
		return nil
	}
	return printTasks(out, list)
}

func printTasks(out io.Writer, list []todos.Task) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tSTAR\tCREATED\tTEXT")
	for _, t := range list {
		done, star := " ", " "
		if t.Completed {
			done = "x"
		}
		if t.Important {
			star = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			done,
			star,
			t.CreatedAt.Local().Format(cliDateLayout),
			t.Text,
		)
	}
	return w.Flush()
}

func runUpdate(ctx context.Context, cmd *cli.Command, apply func(taskBackend, context.Context, todos.ID) (todos.Task, error)) error {
	setupLogging(cmd, slog.LevelWarn)

	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	b, release, err := openBackend(ctx, cmd, true)
	if err != nil {
		return err
	}

	task, err := apply(b, ctx, id)
	if err := finish(release, err); err != nil {
		return describe(id, err)
	}
	fmt.Fprintln(stdout(cmd), formatTask(task))
	return nil
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	text := strings.Join(cmd.Args().Tail(), " ")

	b, release, err := openBackend(ctx, cmd, true)
	if err != nil {
		return err
	}

	task, err := b.Edit(ctx, id, text)
	if err := finish(release, err); err != nil {
		return describe(id, err)
	}
	fmt.Fprintln(stdout(cmd), formatTask(task))
	return nil
}

func runRemove(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	b, release, err := openBackend(ctx, cmd, true)
	if err != nil {
		return err
	}

	if err := finish(release, b.Delete(ctx, id)); err != nil {
		return describe(id, err)
	}
	fmt.Fprintf(stdout(cmd), "Deleted %s\n", id)
	return nil
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	b, release, err := openBackend(ctx, cmd, false)
	if err != nil {
		return err
	}

	c, err := b.Counts()
	if err := finish(release, err); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Total: %d  Active: %d  Completed: %d  Important: %d\n",
		c.Total, c.Active, c.Completed, c.Important)
	return nil
}

func formatTask(t todos.Task) string {
	var b strings.Builder
	if t.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	b.WriteString(t.ID.String())
	b.WriteString("  ")
	b.WriteString(t.Text)
	if t.Important {
		b.WriteString("  *")
	}
	return b.String()
}
