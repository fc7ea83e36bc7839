package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const anthropicMaxTokens = 4096

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicProvider creates a provider for the Anthropic Messages API.
func NewAnthropicProvider(cfg *Config, logger *zap.Logger) (*AnthropicProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
		logger: logger.Named("llm.anthropic"),
	}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Completion, error) {
	system, converted := p.buildMessages(messages)

	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  converted,
		Tools:     p.buildTools(tools),
	}

	p.logger.Debug("LLM request",
		zap.String("model", p.model),
		zap.Int("message_count", len(converted)),
		zap.Int("tool_count", len(tools)))

	start := time.Now()
	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		p.logger.Error("Messages request failed", zap.Error(err))
		return nil, ClassifyError(err)
	}

	completion := &Completion{}
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil && completion.Text == "" {
				completion.Text = *block.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			completion.ToolCalls = append(completion.ToolCalls, ToolCall{
				ID:   block.MessageContentToolUse.ID,
				Type: "function",
				Function: ToolCallFunc{
					Name:      block.MessageContentToolUse.Name,
					Arguments: string(block.MessageContentToolUse.Input),
				},
			})
		}
	}

	p.logger.Debug("LLM response",
		zap.Duration("duration", time.Since(start)),
		zap.Int("tool_calls", len(completion.ToolCalls)),
		zap.String("stop_reason", string(resp.StopReason)))

	return completion, nil
}

// buildMessages converts neutral messages to Anthropic form. System messages
// move to the dedicated request field; tool results become user-role
// tool_result blocks as the Messages API requires.
func (p *AnthropicProvider) buildMessages(messages []Message) (string, []anthropic.Message) {
	var system string
	out := make([]anthropic.Message, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleTool:
			out = append(out, anthropic.Message{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewToolResultMessageContent(m.ToolCallID, m.Content, false),
				},
			})
		case RoleAssistant:
			var content []anthropic.MessageContent
			if m.Content != "" {
				content = append(content, anthropic.NewTextMessageContent(m.Content))
			}
			for _, tc := range m.ToolCalls {
				content = append(content, anthropic.MessageContent{
					Type: anthropic.MessagesContentTypeToolUse,
					MessageContentToolUse: &anthropic.MessageContentToolUse{
						ID:    tc.ID,
						Name:  tc.Function.Name,
						Input: json.RawMessage(tc.Function.Arguments),
					},
				})
			}
			if len(content) == 0 {
				continue
			}
			out = append(out, anthropic.Message{Role: anthropic.RoleAssistant, Content: content})
		default:
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
			})
		}
	}
	return system, out
}

func (p *AnthropicProvider) buildTools(tools []ToolDefinition) []anthropic.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return out
}
