package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/backup"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/gateway"
	"github.com/dohr-michael/todoglass/internal/heartbeat"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the local HTTP/WebSocket gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (0 picks a free port)",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelInfo)

	a, err := openApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = int(cmd.Int("port"))
	}

	server := gateway.NewServer(a.Store, a.Bus, cfg.Gateway.Host, cfg.Gateway.Port)
	ln, err := server.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	hb := heartbeat.NewWriter(config.HeartbeatPath(), heartbeat.Info{
		Addr:   server.Addr(),
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		Key:    cfg.Storage.Key,
	}, heartbeat.DefaultInterval)
	if err := hb.Start(); err != nil {
		slog.Warn("heartbeat disabled", "error", err)
	}
	defer hb.Stop()

	if cfg.Backup.Cron != "" {
		scheduler, err := backup.NewScheduler(backup.Config{
			KV:   a.RawKV,
			Key:  cfg.Storage.Key,
			Dir:  cfg.Backup.Dir,
			Keep: cfg.Backup.Keep,
			Cron: cfg.Backup.Cron,
			Bus:  a.Bus,
		})
		if err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
		slog.Info("backups scheduled", "cron", cfg.Backup.Cron, "next", scheduler.Next(time.Now()).Format(time.RFC3339))
	}

	slog.Info("gateway listening", "addr", server.Addr(), "driver", cfg.Storage.Driver)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	// Wait for signal or error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
