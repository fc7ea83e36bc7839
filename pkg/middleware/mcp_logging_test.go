package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okToolReply(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func TestMCPRequestLoggerToolCall(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	wrapped := MCPRequestLogger(logger)(okToolReply(
		`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"3 rows"}]}}`))

	reqBody := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"listCollections","arguments":{"limit":5}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	req.Header.Set("Mcp-Session-Id", "sess-1")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	require.Equal(t, 2, logs.Len(), "one request entry and one response entry")

	request := logs.All()[0]
	assert.Equal(t, "tool transport request", request.Message)
	assert.Equal(t, "tools/call", request.ContextMap()["rpc_method"])
	assert.Equal(t, "listCollections", request.ContextMap()["tool"])
	assert.Equal(t, "sess-1", request.ContextMap()["session_id"])

	response := logs.All()[1]
	assert.Equal(t, "tool transport response", response.Message)
	assert.Equal(t, "listCollections", response.ContextMap()["tool"])
	assert.Equal(t, "sess-1", response.ContextMap()["session_id"])
	assert.NotNil(t, response.ContextMap()["duration"])
}

func TestMCPRequestLoggerErrorReply(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	// JSON-RPC errors ride an HTTP 200.
	wrapped := MCPRequestLogger(logger)(okToolReply(
		`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"unknown tool"}}`))

	reqBody := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	require.Equal(t, 2, logs.Len())
	response := logs.All()[1]
	assert.Equal(t, "tool transport response error", response.Message)
	assert.Equal(t, int64(-32602), response.ContextMap()["error_code"])
	assert.Equal(t, "unknown tool", response.ContextMap()["error_message"])
}

func TestMCPRequestLoggerNonPostSkipsBody(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	reached := false
	wrapped := MCPRequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Mcp-Session-Id", "sess-2")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.True(t, reached)
	require.Equal(t, 1, logs.Len(), "session teardown logs one header-only entry")
	entry := logs.All()[0]
	assert.Equal(t, http.MethodDelete, entry.ContextMap()["method"])
	assert.Equal(t, "sess-2", entry.ContextMap()["session_id"])
}

func TestMCPRequestLoggerMalformedBodyPassesThrough(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	var received string
	wrapped := MCPRequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, 16)
		n, _ := r.Body.Read(body)
		received = string(body[:n])
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, "not json", received, "body must be restored for the handler")
	require.GreaterOrEqual(t, logs.Len(), 1)
	assert.Equal(t, "", logs.All()[0].ContextMap()["tool"])
}

func TestMCPRequestLoggerNilLoggerPassesThrough(t *testing.T) {
	reached := false
	wrapped := MCPRequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, reached)
}

func TestSanitizeArguments(t *testing.T) {
	longValue := strings.Repeat("a", maxLoggedArgLen+50)

	got := sanitizeArguments(map[string]any{
		"password":     "hunter2",
		"Api_Key":      "abc123",
		"query":        "SELECT * FROM daily_stats WHERE brand = 'secret brand'",
		"count_sql":    "SELECT count(*) FROM defects",
		"collection":   "equipments",
		"long_comment": longValue,
		"limit":        float64(10),
	})

	assert.Equal(t, "[REDACTED]", got["password"])
	assert.Equal(t, "[REDACTED]", got["Api_Key"])

	assert.NotContains(t, got["query"], "secret brand", "query literals must not reach logs")
	assert.Contains(t, got["query"], "query elided")
	assert.Contains(t, got["count_sql"], "query elided")

	assert.Equal(t, "equipments", got["collection"])
	assert.Equal(t, float64(10), got["limit"])

	truncated, ok := got["long_comment"].(string)
	require.True(t, ok)
	assert.Len(t, truncated, maxLoggedArgLen+3)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestSanitizeArgumentsNil(t *testing.T) {
	assert.Nil(t, sanitizeArguments(nil))
}
