package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/clients/tui"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/heartbeat"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive dashboard",
		Action: runTUI,
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	// The dashboard owns the terminal: drop logs unless debugging.
	if cmd.Bool("debug") {
		setupLogging(cmd, slog.LevelDebug)
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	// The store is loaded by the dashboard behind its loading screen.
	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !cmd.Bool("ephemeral") {
		storage := a.Config.Storage
		if hb := liveHeartbeat(config.HeartbeatPath(), storage); hb != nil {
			return fmt.Errorf("gateway (PID %d) has the tasks open at %s; stop it first", hb.PID, hb.URL())
		}
		// Lets CLI writes see that the collection is held here.
		hb := heartbeat.NewWriter(config.DashboardPath(), heartbeat.Info{
			Driver: storage.Driver,
			Path:   storage.Path,
			Key:    storage.Key,
		}, heartbeat.DefaultInterval)
		if err := hb.Start(); err != nil {
			slog.Warn("dashboard heartbeat disabled", "error", err)
		}
		defer hb.Stop()
	}

	if err := tui.Run(ctx, a.Store, a.Bus); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return reportSave(a)
}
