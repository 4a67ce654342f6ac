package handler

import (
	"net/http"

	"github.com/IANDYI/eldercare-service/internal/adapters/middleware"
	"github.com/IANDYI/eldercare-service/internal/adapters/websocket"
	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"go.uber.org/zap"
)

// TokenAuthenticator validates an access token
type TokenAuthenticator interface {
	Authenticate(token string) (int64, domain.Role, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub    *websocket.Hub
	auth   TokenAuthenticator
	logger *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *websocket.Hub, auth TokenAuthenticator, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		hub:    hub,
		auth:   auth,
		logger: logger,
	}
}

// HandleWebSocket handles GET /ws. Browsers cannot set headers on the
// upgrade request, so the token may also come from ?token=.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	userID, role, err := h.auth.Authenticate(token)
	if err != nil {
		h.logger.Debug("websocket connection rejected", zap.Error(err))
		middleware.WriteAuthError(w, err)
		return
	}

	conn, err := websocket.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	h.hub.ServeClient(conn, userID, string(role))
}
