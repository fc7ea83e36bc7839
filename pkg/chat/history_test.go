package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlens/fleetlens-engine/pkg/llm"
)

func userMsg(i int) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("question %d", i)}
}

func assistantMsg(i int) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("answer %d", i)}
}

func toolPair(id string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: id, Type: "function", Function: llm.ToolCallFunc{Name: "listCollections", Arguments: "{}"}}}},
		{Role: llm.RoleTool, ToolCallID: id, Content: `{"result":"[]"}`},
	}
}

// assertPairing checks that every assistant tool-call message is immediately
// followed by its matching tool result.
func assertPairing(t *testing.T, messages []llm.Message) {
	t.Helper()
	for i, m := range messages {
		if m.Role != llm.RoleAssistant || len(m.ToolCalls) == 0 {
			continue
		}
		require.Less(t, i+1, len(messages), "tool call at %d has no result", i)
		next := messages[i+1]
		assert.Equal(t, llm.RoleTool, next.Role, "message after tool call at %d", i)
		assert.Equal(t, m.ToolCalls[0].ID, next.ToolCallID, "correlation id at %d", i)
	}
}

func TestTrimByCountUnderCeilingIsNoop(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 5; i++ {
		messages = append(messages, userMsg(i), assistantMsg(i))
	}

	got := TrimByCount(messages, 25, 20)
	assert.Equal(t, messages, got)
}

func TestTrimByCountKeepsPrimingAndRecent(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 20; i++ {
		messages = append(messages, userMsg(i), assistantMsg(i))
	}
	require.Greater(t, len(messages), 25)

	got := TrimByCount(messages, 25, 20)

	require.Len(t, got, 22)
	assert.Equal(t, PrimingMessages(), got[:2])
	assert.Equal(t, messages[len(messages)-20:], got[2:])
}

func TestTrimByCountDoesNotSplitToolPair(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 10; i++ {
		messages = append(messages, userMsg(i))
		messages = append(messages, toolPair(fmt.Sprintf("call_%d", i))...)
		messages = append(messages, assistantMsg(i))
	}

	// Pick keepRecent so the naive cut lands on a tool result.
	for keep := 15; keep <= 22; keep++ {
		got := TrimByCount(messages, 25, keep)
		assert.NotEqual(t, llm.RoleTool, got[2].Role, "keep=%d: first retained message is an orphaned tool result", keep)
		assertPairing(t, got)
	}
}

func TestTrimByCountIdempotent(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 30; i++ {
		messages = append(messages, userMsg(i))
		messages = append(messages, toolPair(fmt.Sprintf("call_%d", i))...)
	}

	once := TrimByCount(messages, 25, 20)
	twice := TrimByCount(once, 25, 20)
	assert.Equal(t, once, twice)
}

func TestTrimByTokensKeepsPrimingOutsideBudget(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 50; i++ {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "one two three four five"})
	}

	got := TrimByTokens(messages, 25)

	assert.Equal(t, PrimingMessages(), got[:2])
	// 5 tokens per message, budget 25: five recent messages fit.
	assert.Len(t, got, 7)
	assert.Equal(t, messages[len(messages)-5:], got[2:])
}

func TestTrimByTokensIdempotent(t *testing.T) {
	messages := PrimingMessages()
	for i := 0; i < 40; i++ {
		messages = append(messages, userMsg(i))
		messages = append(messages, toolPair(fmt.Sprintf("call_%d", i))...)
	}

	once := TrimByTokens(messages, 30)
	twice := TrimByTokens(once, 30)
	assert.Equal(t, once, twice)
	assertPairing(t, once)
}

func TestTrimByTokensSmallHistoryIsNoop(t *testing.T) {
	messages := append(PrimingMessages(), userMsg(1))
	got := TrimByTokens(messages, 10000)
	assert.Equal(t, messages, got)
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 3, ApproxTokens("show my fleet"))
	assert.Equal(t, 2, ApproxTokens("  spaced   out  "))
}
