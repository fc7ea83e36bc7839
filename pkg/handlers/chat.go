package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/auth"
	"github.com/fleetlens/fleetlens-engine/pkg/chat"
)

// Chat wire events. Inbound events carry a payload in data; outbound events
// mirror the shapes the web frontend expects.
const (
	eventChatMessage       = "chat_message"
	eventClearHistory      = "clear_history"
	eventGetHistorySummary = "get_history_summary"

	eventSessionCreated = "session_created"
	eventToolCall       = "tool_call"
	eventChatResponse   = "chat_response"
	eventHistoryCleared = "history_cleared"
	eventHistorySummary = "history_summary"
	eventError          = "error"
)

// frame is the envelope for both directions of the chat channel.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// chatMessagePayload is the inbound chat_message body.
type chatMessagePayload struct {
	UserMessage string `json:"userMessage"`
}

// ChatHandler upgrades chat connections to websockets and runs one
// conversation per connection. Authorization happens before the upgrade;
// an unauthorized client never gets session state.
type ChatHandler struct {
	authorizer *auth.Authorizer
	sessions   *chat.Manager
	service    *chat.Service
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(authorizer *auth.Authorizer, sessions *chat.Manager, service *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		authorizer: authorizer,
		sessions:   sessions,
		service:    service,
		logger:     logger.Named("chat"),
		upgrader: websocket.Upgrader{
			// The chat frontend is served from another origin; the access
			// token is the authorization boundary, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the chat websocket endpoint on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.Serve)
}

// Serve authorizes and upgrades one chat connection, then serves its event
// loop until the client disconnects.
func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	accessToken := r.Header.Get("Authorization")
	workspace := r.Header.Get("Workspace")

	if err := h.authorizer.Authorize(r.Context(), accessToken, workspace); err != nil {
		h.logger.Warn("rejected chat connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := h.sessions.Create(uuid.NewString(), workspace)
	defer h.sessions.Delete(session.ID)

	h.logger.Info("chat session opened",
		zap.String("session_id", session.ID),
		zap.String("workspace", workspace))

	if err := h.emit(conn, eventSessionCreated, map[string]string{"sessionId": session.ID}); err != nil {
		return
	}

	h.serveLoop(r, conn, session)

	h.logger.Info("chat session closed", zap.String("session_id", session.ID))
}

// serveLoop reads frames until the connection drops. One connection is one
// goroutine; events on a session are handled strictly in arrival order,
// which is what keeps the history's triad ordering intact.
func (h *ChatHandler) serveLoop(r *http.Request, conn *websocket.Conn, session *chat.Session) {
	for {
		var in frame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("chat connection error",
					zap.String("session_id", session.ID),
					zap.Error(err))
			}
			return
		}

		switch in.Event {
		case eventChatMessage:
			h.handleChatMessage(r, conn, session, in.Data)
		case eventClearHistory:
			session.Reset()
			h.emitOrLog(conn, session, eventHistoryCleared,
				map[string]string{"message": "Chat history cleared"})
		case eventGetHistorySummary:
			h.emitOrLog(conn, session, eventHistorySummary, session.Summary())
		default:
			h.emitOrLog(conn, session, eventError,
				map[string]string{"error": "unknown event: " + in.Event})
		}
	}
}

func (h *ChatHandler) handleChatMessage(r *http.Request, conn *websocket.Conn, session *chat.Session, data json.RawMessage) {
	var payload chatMessagePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.emitOrLog(conn, session, eventError, map[string]string{"error": "malformed chat_message payload"})
			return
		}
	}
	if payload.UserMessage == "" {
		h.emitOrLog(conn, session, eventError, map[string]string{"error": "Message is required"})
		return
	}

	notify := func(event chat.ToolCallEvent) {
		h.emitOrLog(conn, session, eventToolCall, map[string]any{
			"tool": event.Tool,
			"args": event.Args,
		})
	}

	response := h.service.Respond(r.Context(), session, payload.UserMessage, notify)
	h.emitOrLog(conn, session, eventChatResponse, map[string]string{"response": response})
}

func (h *ChatHandler) emit(conn *websocket.Conn, event string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(frame{Event: event, Data: encoded})
}

func (h *ChatHandler) emitOrLog(conn *websocket.Conn, session *chat.Session, event string, data any) {
	if err := h.emit(conn, event, data); err != nil {
		h.logger.Warn("failed to emit chat event",
			zap.String("session_id", session.ID),
			zap.String("event", event),
			zap.Error(err))
	}
}
