// Package tools defines the fixed catalog of data-store operations exposed
// over MCP and to the chat orchestration loop.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/llm"
)

// Registry is the name-to-handler catalog. It is populated once at startup
// and immutable afterwards, so lookups need no locking. The same handlers
// back the MCP transport and the in-process chat executor.
type Registry struct {
	order    []string
	tools    map[string]mcp.Tool
	handlers map[string]server.ToolHandlerFunc
}

// NewRegistry creates an empty catalog.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]mcp.Tool),
		handlers: make(map[string]server.ToolHandlerFunc),
	}
}

// Add registers a tool. Adding a duplicate name panics: the catalog is fixed
// at startup and a collision is a programming error.
func (r *Registry) Add(tool mcp.Tool, handler server.ToolHandlerFunc) {
	if _, exists := r.tools[tool.Name]; exists {
		panic(fmt.Sprintf("duplicate tool name %q", tool.Name))
	}
	r.order = append(r.order, tool.Name)
	r.tools[tool.Name] = tool
	r.handlers[tool.Name] = handler
}

// AttachTo registers every tool with an MCP server.
func (r *Registry) AttachTo(s *server.MCPServer) {
	for _, name := range r.order {
		s.AddTool(r.tools[name], r.handlers[name])
	}
}

// ExecuteTool dispatches a call by name and returns the first textual content
// block of the result. Unknown names fail closed. Handler failures and
// explicit error results are returned as errors so the caller can decide how
// to surface them.
func (r *Registry) ExecuteTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownTool, name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	result, err := handler(ctx, req)
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return firstText(result), nil
}

// Definitions renders the catalog in the reduced JSON-Schema form the model
// providers accept.
func (r *Registry) Definitions() ([]llm.ToolDefinition, error) {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]

		encoded, err := json.Marshal(tool)
		if err != nil {
			return nil, fmt.Errorf("marshal tool %s: %w", name, err)
		}
		var wire struct {
			InputSchema map[string]any `json:"inputSchema"`
		}
		if err := json.Unmarshal(encoded, &wire); err != nil {
			return nil, fmt.Errorf("decode tool %s schema: %w", name, err)
		}

		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  llm.ReduceParameterSchema(wire.InputSchema),
		})
	}
	return defs, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func firstText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
