package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	todomcp "github.com/dohr-michael/todoglass/internal/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose task tools as an MCP server (stdio)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "filter",
				UsageText: "Tool name, or \"read\" / \"write\" (empty = all)",
			},
		},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP stdio transport, logs stay on stderr.
	setupLogging(cmd, slog.LevelWarn)

	a, err := openApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()
	// Tool calls wait for the store, the handshake does not.
	go a.Load(ctx)

	filter := cmd.StringArg("filter")
	slog.Debug("starting MCP server", "filter", filter)

	server := todomcp.NewMCPServer(a.Store, Version, filter)
	return todomcp.Serve(ctx, server)
}
