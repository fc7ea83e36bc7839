package mcp

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

// SessionRegistry maps live transport session identifiers to the credential
// they were opened with. The credential is re-checked on every request on a
// session, so routing cannot be hijacked by guessing a live session id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]string)}
}

// Register binds a session identifier to the credential that opened it.
func (r *SessionRegistry) Register(sessionID, credential string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = credential
}

// Authorize checks that the session is live and that the supplied credential
// matches the one the session was opened with.
func (r *SessionRegistry) Authorize(sessionID, credential string) error {
	r.mu.RLock()
	registered, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrNoTransport, sessionID)
	}
	if subtle.ConstantTimeCompare([]byte(registered), []byte(credential)) != 1 {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// Unregister removes a closed session. Unknown identifiers are ignored.
func (r *SessionRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
