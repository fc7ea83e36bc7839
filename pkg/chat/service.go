package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/llm"
)

// Fixed user-visible turn outcomes.
const (
	// Returned when the iteration budget runs out before the model settles
	// on a final answer. A terminal state, not a failure.
	ResponseTooComplex = "Sorry, that request is too complex. Try rephrasing it or narrowing down the details."

	// Returned when the model response carries neither text nor a tool call.
	ResponseNoReply = "No response from the assistant."
)

// Executor runs one named tool and always yields a result string.
type Executor interface {
	ExecuteTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}

// ToolCallEvent is emitted to the client before a tool call resolves.
type ToolCallEvent struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Config bounds a turn and a session history.
type Config struct {
	MaxToolIterations int
	HistoryCeiling    int
	HistoryKeepRecent int
	TokenBudget       int
}

// Service drives user turns: one model call, at most one tool call, repeat
// until the model answers in plain text or the iteration budget runs out.
type Service struct {
	provider llm.Provider
	executor Executor
	tools    []llm.ToolDefinition
	cfg      Config
	logger   *zap.Logger
}

// NewService creates the orchestration service.
func NewService(provider llm.Provider, executor Executor, tools []llm.ToolDefinition, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		executor: executor,
		tools:    tools,
		cfg:      cfg,
		logger:   logger.Named("chat"),
	}
}

// Respond runs one user turn to completion and returns the user-visible
// response. Model failures are classified and mapped to user copy here; they
// are never retried within the turn. notify, when non-nil, is called before
// each tool call resolves.
func (s *Service) Respond(ctx context.Context, session *Session, userText string, notify func(ToolCallEvent)) string {
	session.append(llm.Message{Role: llm.RoleUser, Content: userText})
	session.trim(s.cfg.HistoryCeiling, s.cfg.HistoryKeepRecent)

	for iteration := 1; iteration <= s.cfg.MaxToolIterations; iteration++ {
		history := TrimByTokens(session.Messages(), s.cfg.TokenBudget)

		completion, err := s.provider.Complete(ctx, history, s.tools)
		if err != nil {
			classified := llm.ClassifyError(err)
			s.logger.Error("Model call failed",
				zap.String("session_id", session.ID),
				zap.Int("iteration", iteration),
				zap.String("error_type", string(classified.Type)),
				zap.Error(err))
			return classified.UserMessage()
		}

		if len(completion.ToolCalls) == 0 {
			text := completion.Text
			if strings.TrimSpace(text) == "" {
				text = ResponseNoReply
			}
			session.append(llm.Message{Role: llm.RoleAssistant, Content: text})
			return text
		}

		// Only the first tool call is honored.
		tc := completion.ToolCalls[0]
		if tc.ID == "" {
			tc.ID = newToolCallID()
		}

		args, err := parseArguments(tc.Function.Arguments)
		if err != nil {
			s.logger.Error("Malformed tool arguments",
				zap.String("session_id", session.ID),
				zap.String("tool", tc.Function.Name),
				zap.Error(err))
			return llm.UserMessageFor(err)
		}
		injectWorkspace(args, session.Workspace)

		if notify != nil {
			notify(ToolCallEvent{ID: tc.ID, Tool: tc.Function.Name, Args: args})
		}

		s.logger.Debug("Executing tool",
			zap.String("session_id", session.ID),
			zap.String("tool", tc.Function.Name),
			zap.Int("iteration", iteration))

		result, execErr := s.executor.ExecuteTool(ctx, tc.Function.Name, args)
		if execErr != nil {
			// Tool failures become model context, not turn failures.
			result = fmt.Sprintf("Error executing tool: %s", execErr.Error())
		}

		// The call and its result enter the history together so trimming and
		// provider conversion always see a complete pair.
		session.append(
			assistantToolCallMessage(tc, args),
			toolResultMessage(tc.ID, result),
		)
	}

	s.logger.Warn("Iteration budget exhausted",
		zap.String("session_id", session.ID),
		zap.Int("max_iterations", s.cfg.MaxToolIterations))
	return ResponseTooComplex
}

func parseArguments(raw string) (map[string]any, error) {
	args := make(map[string]any)
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	return args, nil
}

// injectWorkspace scopes a tool call to the session's workspace unless the
// model already set one.
func injectWorkspace(args map[string]any, workspace string) {
	if workspace == "" {
		return
	}
	if _, ok := args["workspace_id"]; !ok {
		args["workspace_id"] = workspace
	}
}

func assistantToolCallMessage(tc llm.ToolCall, args map[string]any) llm.Message {
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte("{}")
	}
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:   tc.ID,
			Type: "function",
			Function: llm.ToolCallFunc{
				Name:      tc.Function.Name,
				Arguments: string(encoded),
			},
		}},
	}
}

func toolResultMessage(toolCallID, result string) llm.Message {
	payload, err := json.Marshal(map[string]string{"result": result})
	if err != nil {
		payload = []byte(`{"result":""}`)
	}
	return llm.Message{
		Role:       llm.RoleTool,
		ToolCallID: toolCallID,
		Content:    string(payload),
	}
}

func newToolCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}
