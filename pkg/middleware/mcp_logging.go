package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MCPRequestLogger returns middleware that logs the tool transport's
// JSON-RPC traffic: tool name, sanitized arguments, session id, duration and
// error outcome. Only POST bodies are intercepted; the GET event stream and
// DELETE session teardown are logged from headers alone. A nil logger
// disables the middleware.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get("Mcp-Session-Id")

			if r.Method != http.MethodPost {
				logger.Debug("tool transport request",
					zap.String("method", r.Method),
					zap.String("session_id", sessionID))
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("failed to read tool transport body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call toolCallFrame
			// Non-JSON bodies still pass through; they just log without a
			// tool name.
			_ = json.Unmarshal(body, &call)

			logger.Debug("tool transport request",
				zap.String("rpc_method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.String("session_id", sessionID),
				zap.Any("arguments", sanitizeArguments(call.Params.Arguments)))

			capture := &bodyCapture{ResponseWriter: w, body: &bytes.Buffer{}}
			start := time.Now()

			next.ServeHTTP(capture, r)

			duration := time.Since(start)

			var reply rpcReply
			if err := json.Unmarshal(capture.body.Bytes(), &reply); err != nil {
				// Event-stream or empty replies are not a single JSON object.
				return
			}

			if reply.Error != nil {
				logger.Debug("tool transport response error",
					zap.String("tool", call.Params.Name),
					zap.String("session_id", sessionID),
					zap.Int("error_code", reply.Error.Code),
					zap.String("error_message", reply.Error.Message),
					zap.Duration("duration", duration))
				return
			}
			logger.Debug("tool transport response",
				zap.String("tool", call.Params.Name),
				zap.String("session_id", sessionID),
				zap.Duration("duration", duration))
		})
	}
}

// toolCallFrame is the slice of a tools/call request this middleware reads.
type toolCallFrame struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Error *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// bodyCapture tees the response body so the reply can be classified after
// the handler runs.
type bodyCapture struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (c *bodyCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *bodyCapture) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

const maxLoggedArgLen = 200

var sensitiveArgKeywords = []string{"password", "secret", "token", "key", "credential"}

// sanitizeArguments prepares tool arguments for logging. Credential-bearing
// keys are redacted outright; query text (SQL or document filters, keyed by
// a sql/query suffix) is elided to its length because it can embed tenant
// data as literals; remaining strings are truncated.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		lower := strings.ToLower(k)

		if hasSensitiveKeyword(lower) {
			result[k] = "[REDACTED]"
			continue
		}

		if str, ok := v.(string); ok {
			if isQueryKey(lower) {
				result[k] = queryPlaceholder(str)
				continue
			}
			if len(str) > maxLoggedArgLen {
				result[k] = str[:maxLoggedArgLen] + "..."
				continue
			}
		}
		result[k] = v
	}
	return result
}

func hasSensitiveKeyword(lowerKey string) bool {
	for _, keyword := range sensitiveArgKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}

func isQueryKey(lowerKey string) bool {
	return lowerKey == "sql" || lowerKey == "query" ||
		strings.HasSuffix(lowerKey, "_sql") || strings.HasSuffix(lowerKey, "_query")
}

func queryPlaceholder(query string) string {
	return "[query elided, " + strconv.Itoa(len(query)) + " chars]"
}
