package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

const sessionHeader = "Mcp-Session-Id"

// Guard enforces the static access credential on the tool transport. The
// credential is checked at connection time and again on every request for
// the session, so a live session id alone is never enough to route traffic.
type Guard struct {
	accessKey string
	sessions  *SessionRegistry
	logger    *zap.Logger
}

// NewGuard creates a Guard around a session registry.
func NewGuard(accessKey string, sessions *SessionRegistry, logger *zap.Logger) *Guard {
	return &Guard{
		accessKey: accessKey,
		sessions:  sessions,
		logger:    logger.Named("mcp-guard"),
	}
}

// Wrap returns a handler that authorizes every request before passing it to
// the transport. Session binding follows the streamable HTTP contract: the
// initialize response carries the new session id, later requests echo it in
// a header, and DELETE ends the session.
func (g *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := extractCredential(r)
		if credential == "" {
			g.reject(w, r, http.StatusUnauthorized, "missing access credential")
			return
		}
		if subtle.ConstantTimeCompare([]byte(credential), []byte(g.accessKey)) != 1 {
			g.reject(w, r, http.StatusUnauthorized, "invalid access credential")
			return
		}

		sessionID := r.Header.Get(sessionHeader)
		if sessionID != "" {
			if err := g.sessions.Authorize(sessionID, credential); err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, apperrors.ErrNoTransport) {
					status = http.StatusNotFound
				}
				g.reject(w, r, status, err.Error())
				return
			}
		}

		next.ServeHTTP(w, r)

		if sessionID == "" {
			// Initialize responses assign the session id; bind it to the
			// credential that opened it.
			if assigned := w.Header().Get(sessionHeader); assigned != "" {
				g.sessions.Register(assigned, credential)
				g.logger.Debug("transport session opened",
					zap.String("session_id", assigned))
			}
			return
		}
		if r.Method == http.MethodDelete {
			g.sessions.Unregister(sessionID)
			g.logger.Debug("transport session closed",
				zap.String("session_id", sessionID))
		}
	})
}

// extractCredential reads the access credential from the authorization query
// parameter or a Bearer authorization header.
func extractCredential(r *http.Request) string {
	if key := r.URL.Query().Get("authorization"); key != "" {
		return key
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, status int, reason string) {
	g.logger.Warn("rejected transport request",
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("status", status),
		zap.String("reason", reason))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
