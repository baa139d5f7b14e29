// Package mcp exposes the task store to MCP clients over stdio.
package mcp

import (
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ParamSpec describes one tool argument.
type ParamSpec struct {
	Type        string
	Description string
	Required    bool
	Enum        []string
}

// ToolSpec describes a tool before it is turned into an MCP tool.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
	ReadOnly    bool
}

// toolSpecToMCPTool converts a ToolSpec to an mcp.Tool with JSON Schema.
func toolSpecToMCPTool(spec *ToolSpec) *mcpsdk.Tool {
	props := make(map[string]any, len(spec.Parameters))
	var required []string

	for name, p := range spec.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop

		if p.Required {
			required = append(required, name)
		}
	}

	sort.Strings(required)

	inputSchema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		inputSchema["required"] = required
	}

	tool := &mcpsdk.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		InputSchema: inputSchema,
	}
	if spec.ReadOnly {
		tool.Annotations = &mcpsdk.ToolAnnotations{ReadOnlyHint: true}
	}
	return tool
}
