// Package chat implements conversation sessions and the tool-calling
// orchestration loop that drives one user turn to completion.
package chat

import (
	"strings"

	"github.com/fleetlens/fleetlens-engine/pkg/llm"
	"github.com/fleetlens/fleetlens-engine/pkg/prompts"
)

// primingLen is the number of messages in the priming exchange seeded at
// session start. Trimming never removes them.
const primingLen = 2

// PrimingMessages returns the fixed instruction plus canned acknowledgment
// every session history starts with.
func PrimingMessages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.System},
		{Role: llm.RoleAssistant, Content: prompts.Acknowledgment},
	}
}

// TrimByCount bounds history length. Once the history exceeds ceiling
// messages, the priming exchange plus the most recent keepRecent messages are
// retained and the middle is discarded. The cut never splits an assistant
// tool-call message from its tool result: when the first retained message
// would be an orphaned tool result, the cut walks backward until the pair is
// whole again.
func TrimByCount(messages []llm.Message, ceiling, keepRecent int) []llm.Message {
	if len(messages) <= ceiling || len(messages) <= primingLen+keepRecent {
		return messages
	}

	cut := len(messages) - keepRecent
	cut = pairSafeCut(messages, cut)

	trimmed := make([]llm.Message, 0, primingLen+len(messages)-cut)
	trimmed = append(trimmed, messages[:primingLen]...)
	trimmed = append(trimmed, messages[cut:]...)
	return trimmed
}

// TrimByTokens bounds the approximate token footprint of a history. Walking
// from the most recent message backward, messages are retained until adding
// the next one would exceed budget. The priming exchange is always retained
// and does not count against the budget.
func TrimByTokens(messages []llm.Message, budget int) []llm.Message {
	if len(messages) <= primingLen {
		return messages
	}

	cut := len(messages)
	used := 0
	for i := len(messages) - 1; i >= primingLen; i-- {
		cost := ApproxTokens(messages[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		cut = i
	}
	cut = pairSafeCut(messages, cut)

	if cut == primingLen {
		return messages
	}
	trimmed := make([]llm.Message, 0, primingLen+len(messages)-cut)
	trimmed = append(trimmed, messages[:primingLen]...)
	trimmed = append(trimmed, messages[cut:]...)
	return trimmed
}

// ApproxTokens estimates the token count of text by whitespace splitting.
// The estimate undercounts punctuation-heavy text; callers should treat the
// result as a budget guard, not an exact count.
func ApproxTokens(text string) int {
	return len(strings.Fields(text))
}

// pairSafeCut moves a cut index backward while the message at the cut is a
// tool result, so an assistant tool call and its result land on the same side.
func pairSafeCut(messages []llm.Message, cut int) int {
	for cut > primingLen && cut < len(messages) && messages[cut].Role == llm.RoleTool {
		cut--
	}
	return cut
}
