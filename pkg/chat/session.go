package chat

import (
	"sync"
	"time"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/llm"
)

// Session holds one conversation's isolated state, bound to one client
// connection. History is only appended or bulk-trimmed, never edited in place.
type Session struct {
	ID        string
	Workspace string
	CreatedAt time.Time

	mu       sync.Mutex
	messages []llm.Message
}

// Messages returns a snapshot of the session history.
func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) append(msgs ...llm.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msgs...)
	s.mu.Unlock()
}

func (s *Session) trim(ceiling, keepRecent int) {
	s.mu.Lock()
	s.messages = TrimByCount(s.messages, ceiling, keepRecent)
	s.mu.Unlock()
}

// Reset discards the history back to the priming exchange.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = PrimingMessages()
}

// HistorySummary describes a session history without exposing full content.
type HistorySummary struct {
	TotalMessages     int      `json:"total_messages"`
	UserMessages      int      `json:"user_messages"`
	AssistantMessages int      `json:"assistant_messages"`
	RecentTopics      []string `json:"recent_topics"`
}

// Summary reports message counts and the last few user topics.
func (s *Session) Summary() HistorySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := HistorySummary{TotalMessages: len(s.messages)}
	var userTexts []string
	for _, m := range s.messages {
		switch {
		case m.Role == llm.RoleUser:
			summary.UserMessages++
			userTexts = append(userTexts, m.Content)
		case m.Role == llm.RoleAssistant && m.Content != "":
			summary.AssistantMessages++
		}
	}
	start := len(userTexts) - 3
	if start < 0 {
		start = 0
	}
	for _, text := range userTexts[start:] {
		if len(text) > 50 {
			text = text[:50] + "..."
		}
		summary.RecentTopics = append(summary.RecentTopics, text)
	}
	return summary
}

// Manager is the session registry. Sessions are created on connection,
// destroyed on disconnection and never persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a session with a freshly primed history. An existing
// session with the same id is replaced.
func (m *Manager) Create(id, workspace string) *Session {
	session := &Session{
		ID:        id,
		Workspace: workspace,
		CreatedAt: time.Now(),
		messages:  PrimingMessages(),
	}
	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()
	return session
}

// Get returns the session for id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
