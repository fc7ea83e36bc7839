// Package llm provides chat-completion providers with tool support.
package llm

import "context"

// Message represents a chat message in provider-neutral form.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a tool call requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolCallFunc `json:"function"`
}

// ToolCallFunc represents a function call within a tool call.
type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Completion is the result of a single model turn. When the model asks for
// tools, ToolCalls is non-empty and Text may carry accompanying commentary.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider generates one completion per call. Looping over tool calls is the
// caller's job, so the iteration budget lives in one place.
type Provider interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Completion, error)
	Name() string
}
