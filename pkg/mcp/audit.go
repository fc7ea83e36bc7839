package mcp

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/logging"
)

// CallLogger records every tool round-trip through the transport: name,
// sanitized arguments, duration and outcome. Queries are scrubbed of string
// literals before logging so tenant data never lands in log storage.
type CallLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallLogger creates a CallLogger.
func NewCallLogger(logger *zap.Logger) *CallLogger {
	return &CallLogger{logger: logger.Named("mcp-calls")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (c *CallLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(c.beforeCallTool)
	hooks.AddAfterCallTool(c.afterCallTool)
	hooks.AddOnError(c.onError)
	return hooks
}

func (c *CallLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	c.startTimes.Store(id, time.Now())
}

func (c *CallLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	start, _ := c.loadAndDeleteStart(id)

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
		zap.Duration("duration", time.Since(start)),
	}
	fields = append(fields, resultFields(result)...)

	if result != nil && result.IsError {
		c.logger.Warn("tool call returned error result", fields...)
		return
	}
	c.logger.Info("tool call completed", fields...)
}

func (c *CallLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	start, _ := c.loadAndDeleteStart(id)
	c.logger.Error("tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
		zap.Duration("duration", time.Since(start)),
		zap.String("error", logging.SanitizeError(err)))
}

func (c *CallLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := c.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

// maxLoggedValue caps how much of any single argument lands in a log line.
const maxLoggedValue = 2048

// sqlStringLiteralPattern matches SQL string literals, including ones with
// escaped single quotes.
var sqlStringLiteralPattern = regexp.MustCompile(`'(?:[^']*(?:'')?)*[^']*'`)

// redactSQLStringLiterals replaces literal values in SQL with '***',
// preserving the query structure for debugging while hiding tenant data.
func redactSQLStringLiterals(sql string) string {
	return sqlStringLiteralPattern.ReplaceAllString(sql, "'***'")
}

// sanitizeParams prepares request arguments for logging: SQL-bearing values
// lose their string literals, everything is truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	switch val := value.(type) {
	case string:
		if isSQLParam(key) {
			val = redactSQLStringLiterals(val)
		}
		return logging.TruncateString(val, maxLoggedValue)
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, v := range val {
			nested[k] = sanitizeValue(k, v)
		}
		return nested
	default:
		return value
	}
}

// isSQLParam returns true if a parameter key likely contains SQL.
func isSQLParam(key string) bool {
	lower := strings.ToLower(key)
	return lower == "sql" || lower == "query" || strings.HasSuffix(lower, "_sql") || strings.HasSuffix(lower, "_query")
}

// resultFields summarizes the tool result without logging full payloads.
func resultFields(result *mcplib.CallToolResult) []zap.Field {
	if result == nil {
		return nil
	}

	fields := []zap.Field{
		zap.Bool("is_error", result.IsError),
		zap.Int("content_count", len(result.Content)),
	}
	for _, content := range result.Content {
		if tc, ok := content.(mcplib.TextContent); ok {
			fields = append(fields, zap.String("preview", logging.TruncateString(tc.Text, 200)))
			break
		}
	}
	return fields
}
