package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/todoglass/clients/ws"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/heartbeat"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream live task events from a running gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Gateway URL (defaults to the one in the heartbeat file)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)

	url := cmd.String("url")
	if url == "" {
		status, hb, err := heartbeat.Check(config.HeartbeatPath(), heartbeatMaxAge)
		if err != nil {
			return fmt.Errorf("check heartbeat: %w", err)
		}
		if status != heartbeat.StatusAlive {
			return errors.New("gateway is not running (start it with: todoglass serve)")
		}
		url = hb.URL()
	}

	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	out := stdout(cmd)
	fmt.Fprintf(out, "Watching %s (ctrl+c to stop)\n", url)
	for {
		f, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if f.Event == "" {
			continue
		}
		fmt.Fprintf(out, "%s  %-18s %s\n", time.Now().Format("15:04:05"), f.Event, f.Payload)
	}
}
