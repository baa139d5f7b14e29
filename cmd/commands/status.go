package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/todoglass/internal/app"
	"github.com/dohr-michael/todoglass/internal/config"
	"github.com/dohr-michael/todoglass/internal/heartbeat"
	"github.com/dohr-michael/todoglass/internal/storage"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show gateway status and recent activity",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "activity",
				Usage: "Number of recent activity entries to show",
				Value: 5,
			},
		},
		Action: runStatus,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	ReadOnly bool   `json:"read_only"`
	Clients  int    `json:"clients"`
	Uptime   string `json:"uptime"`
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, slog.LevelWarn)
	out := stdout(cmd)

	status, hb, err := heartbeat.Check(config.HeartbeatPath(), heartbeatMaxAge)
	if err != nil {
		return fmt.Errorf("check heartbeat: %w", err)
	}

	switch status {
	case heartbeat.StatusAlive:
		fmt.Fprintf(out, "Gateway: ALIVE (PID %d, %s, uptime %s)\n", hb.PID, hb.URL(), hb.Uptime)
		if health, err := fetchHealth(ctx, hb.URL()); err != nil {
			fmt.Fprintf(out, "  health: unreachable (%v)\n", err)
		} else {
			fmt.Fprintf(out, "  store: %s, %d client(s)\n", health.State, health.Clients)
			if health.ReadOnly {
				fmt.Fprintln(out, "  store: READ-ONLY, stored tasks could not be read")
			}
		}
	case heartbeat.StatusStale:
		fmt.Fprintf(out, "Gateway: STALE (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
	case heartbeat.StatusDead:
		fmt.Fprintln(out, "Gateway: NOT RUNNING")
	}

	cfg, err := app.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if hb := liveHeartbeat(config.DashboardPath(), cfg.Storage); hb != nil {
		fmt.Fprintf(out, "Dashboard: OPEN (PID %d, uptime %s)\n", hb.PID, hb.Uptime)
	}
	fmt.Fprintf(out, "Storage: %s (%s, key %q)\n", cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.Key)
	if err := printLastSave(ctx, out, cfg.Storage); err != nil {
		slog.Debug("last save unknown", "error", err)
	}

	n := int(cmd.Int("activity"))
	if cfg.Events.ActivityLog == "" || n <= 0 {
		return nil
	}
	entries, err := storage.ReadActivity(cfg.Events.ActivityLog, n)
	if err != nil {
		return fmt.Errorf("read activity: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	fmt.Fprintln(out, "Recent activity:")
	for _, e := range entries {
		fmt.Fprintf(out, "  %s  %s\n", e.Timestamp.Local().Format("15:04:05"), e.Type)
	}
	return nil
}

// printLastSave reports when the task blob was last written, for drivers that track it.
func printLastSave(ctx context.Context, out io.Writer, sc config.StorageConfig) error {
	kv, closeKV, err := app.OpenKV(ctx, sc, false)
	if err != nil {
		return err
	}
	if closeKV != nil {
		defer closeKV()
	}
	stamped, ok := kv.(storage.Stamped)
	if !ok {
		return nil
	}
	ts, found, err := stamped.UpdatedAt(ctx, sc.Key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "  last saved: never")
		return nil
	}
	fmt.Fprintf(out, "  last saved: %s\n", ts.Local().Format(cliDateLayout))
	return nil
}

func fetchHealth(ctx context.Context, baseURL string) (*healthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}
