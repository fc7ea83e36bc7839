package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// rawArguments returns the call's argument object, tolerating a nil payload.
func rawArguments(req mcp.CallToolRequest) map[string]any {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

// popWorkspace extracts the workspace scope the orchestrator injects into
// tool arguments. It is removed from the argument object (and from a nested
// query filter) so it never collides with a tool's own parameters.
func popWorkspace(args map[string]any) string {
	workspace := ""
	if v, ok := args["workspace_id"].(string); ok {
		workspace = v
		delete(args, "workspace_id")
	}
	if query, ok := args["query"].(map[string]any); ok {
		if v, ok := query["workspace_id"].(string); ok {
			if workspace == "" {
				workspace = v
			}
			delete(query, "workspace_id")
		}
	}
	return workspace
}

// stringArg returns a string argument or fallback when absent.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intArg returns a numeric argument or fallback when absent. JSON numbers
// arrive as float64.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// boolArg returns a boolean argument or fallback when absent.
func boolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
