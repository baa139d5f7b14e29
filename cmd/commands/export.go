package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// Export formats.
const (
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

// NewExportCommand returns the export subcommand.
func NewExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Print every task as JSON, YAML or Markdown",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "json, yaml or markdown",
				Value: formatJSON,
			},
		},
		Action: runExport,
	}
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	format := strings.ToLower(cmd.String("format"))
	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.Store.Tasks()
	out := stdout(cmd)

	if format == formatMarkdown && out == os.Stdout && isTerminal(os.Stdout) {
		rendered, err := renderMarkdown(exportMarkdown(tasks))
		if err == nil {
			_, err = io.WriteString(out, rendered)
			return err
		}
		slog.Debug("markdown rendering failed, printing raw", "error", err)
	}
	return writeExport(out, tasks, format)
}

// exportTask is the YAML shape of a task.
type exportTask struct {
	ID          int64  `yaml:"id"`
	Text        string `yaml:"text"`
	Completed   bool   `yaml:"completed"`
	Important   bool   `yaml:"important"`
	CreatedAt   string `yaml:"created_at"`
	CompletedAt string `yaml:"completed_at,omitempty"`
}

// writeExport encodes tasks in the given format.
func writeExport(w io.Writer, tasks []todos.Task, format string) error {
	switch format {
	case formatJSON, "":
		data, err := todos.Encode(tasks)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, data)
		return err

	case formatYAML:
		rows := make([]exportTask, 0, len(tasks))
		for _, t := range tasks {
			row := exportTask{
				ID:        int64(t.ID),
				Text:      t.Text,
				Completed: t.Completed,
				Important: t.Important,
				CreatedAt: t.CreatedAt.UTC().Format(todosTimeLayout),
			}
			if t.CompletedAt != nil {
				row.CompletedAt = t.CompletedAt.UTC().Format(todosTimeLayout)
			}
			rows = append(rows, row)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"tasks": rows}); err != nil {
			return err
		}
		return enc.Close()

	case formatMarkdown:
		_, err := io.WriteString(w, exportMarkdown(tasks))
		return err

	default:
		return fmt.Errorf("unknown export format %q (want json, yaml or markdown)", format)
	}
}

const todosTimeLayout = "2006-01-02T15:04:05.000Z"

// exportMarkdown renders a GitHub-style checklist, important tasks flagged.
func exportMarkdown(tasks []todos.Task) string {
	c := todos.Count(tasks)

	var b strings.Builder
	b.WriteString("# Glass Todo\n\n")
	fmt.Fprintf(&b, "%d total, %d active, %d completed, %d important\n\n", c.Total, c.Active, c.Completed, c.Important)
	if len(tasks) == 0 {
		b.WriteString("_No tasks yet._\n")
		return b.String()
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		star := ""
		if t.Important {
			star = " ⭐"
		}
		fmt.Fprintf(&b, "- [%s] %s%s\n", mark, t.Text, star)
	}
	return b.String()
}

func renderMarkdown(content string) (string, error) {
	width := 80
	if w, _, err := termSize(os.Stdout); err == nil && w > 0 {
		width = w
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
