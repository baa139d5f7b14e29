package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/backup"
)

// NewBackupCommand returns the backup subcommand.
func NewBackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Snapshot the stored tasks and prune old snapshots",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List existing snapshots instead of taking one",
			},
		},
		Action: runBackup,
	}
}

func runBackup(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config.Backup
	out := stdout(cmd)

	if cmd.Bool("list") {
		paths, err := backup.List(cfg.Dir)
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}
		if len(paths) == 0 {
			fmt.Fprintln(out, "No backups found.")
			return nil
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	path, err := backup.Snapshot(ctx, a.RawKV, a.Config.Storage.Key, cfg.Dir, time.Now())
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if path == "" {
		fmt.Fprintln(out, "Nothing to back up yet.")
		return nil
	}
	pruned, err := backup.Prune(cfg.Dir, cfg.Keep)
	if err != nil {
		return fmt.Errorf("prune backups: %w", err)
	}

	fmt.Fprintf(out, "Backed up to %s", path)
	if pruned > 0 {
		fmt.Fprintf(out, " (pruned %d)", pruned)
	}
	fmt.Fprintln(out)
	return nil
}
