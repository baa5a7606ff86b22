package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/infrastructure/auth"
	"masterful/services/chat-api/internal/realtime"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

// WebSocketHandler upgrades clients onto the realtime hub.
type WebSocketHandler struct {
	hub       *realtime.Hub
	validator *auth.Validator
	log       zerolog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *realtime.Hub, validator *auth.Validator, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		log:       log.With().Str("component", "ws-handler").Logger(),
	}
}

// Connect handles GET /v1/ws. Authentication happens before the upgrade so
// unauthenticated clients get a proper 401 instead of a dropped socket.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	userID, err := h.validator.Authenticate(c)
	if err != nil {
		platformerrors.WriteUnauthorized(c, err.Error())
		return
	}

	if err := h.hub.HandleConnection(c.Writer, c.Request, userID); err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
	}
}
