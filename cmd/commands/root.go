package commands

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "todoglass",
		Usage: "Beautiful task management with glassmorphism design",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep tasks in memory only; nothing is read or written",
			},
		},
		Commands: []*cli.Command{
			NewWakeCommand(),
			NewAddCommand(),
			NewListCommand(),
			NewDoneCommand(),
			NewStarCommand(),
			NewEditCommand(),
			NewRemoveCommand(),
			NewStatsCommand(),
			NewExportCommand(),
			NewBackupCommand(),
			NewTUICommand(),
			NewServeCommand(),
			NewMCPServeCommand(),
			NewStatusCommand(),
			NewWatchCommand(),
		},
		Action: runDefault,
	}
}

// runDefault opens the dashboard on a terminal and lists tasks otherwise.
func runDefault(ctx context.Context, cmd *cli.Command) error {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return runTUI(ctx, cmd)
	}
	return runList(ctx, cmd)
}

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"
