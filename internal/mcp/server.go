package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/todoglass/internal/todos"
)

// Tool groups accepted as a filter.
const (
	FilterRead  = "read"
	FilterWrite = "write"
)

// NewMCPServer creates an MCP server exposing the store operations as tools.
// If filter is non-empty, only the tool of that name, or the tools of that
// group ("read" or "write"), are exposed.
func NewMCPServer(store *todos.Store, version, filter string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "todoglass",
		Version: version,
	}, nil)

	for _, t := range tools {
		if filter != "" && !matchesFilter(t.spec, filter) {
			continue
		}

		mcpTool := toolSpecToMCPTool(&t.spec)
		run := t.run
		name := t.spec.Name

		server.AddTool(mcpTool, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return callTool(ctx, store, name, run, req.Params.Arguments), nil
		})

		slog.Debug("mcp tool registered", "tool", name)
	}

	return server
}

// Serve runs server over stdio until ctx is cancelled or the client disconnects.
func Serve(ctx context.Context, server *mcpsdk.Server) error {
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func callTool(ctx context.Context, store *todos.Store, name string, run toolFunc, args json.RawMessage) *mcpsdk.CallToolResult {
	if err := store.WaitReady(ctx); err != nil {
		return errorResult("tasks are still loading: " + err.Error())
	}
	out, err := run(ctx, store, args)
	if err != nil {
		slog.Debug("mcp tool error", "tool", name, "error", err)
		return errorResult(err.Error())
	}
	data, err := json.Marshal(out)
	if err != nil {
		return errorResult(err.Error())
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}
}

func errorResult(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
	}
}

// matchesFilter checks a tool against a tool name or a group name.
func matchesFilter(spec ToolSpec, filter string) bool {
	switch filter {
	case spec.Name:
		return true
	case FilterRead:
		return spec.ReadOnly
	case FilterWrite:
		return !spec.ReadOnly
	default:
		return false
	}
}
