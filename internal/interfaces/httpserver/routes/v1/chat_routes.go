package v1

import (
	"github.com/gin-gonic/gin"

	"masterful/services/chat-api/internal/infrastructure/auth"
	"masterful/services/chat-api/internal/interfaces/httpserver/handlers"
)

// ChatRoutes registers the messaging REST endpoints and the realtime
// WebSocket endpoint under /v1.
type ChatRoutes struct {
	chatHandler *handlers.ChatHandler
	wsHandler   *handlers.WebSocketHandler
	validator   *auth.Validator
}

// NewChatRoutes creates the v1 chat route group.
func NewChatRoutes(chatHandler *handlers.ChatHandler, wsHandler *handlers.WebSocketHandler, validator *auth.Validator) *ChatRoutes {
	return &ChatRoutes{
		chatHandler: chatHandler,
		wsHandler:   wsHandler,
		validator:   validator,
	}
}

// Register mounts the chat routes on the v1 group.
func (r *ChatRoutes) Register(group *gin.RouterGroup) {
	// The WebSocket endpoint authenticates inside the handler because
	// browser clients can only pass the token as a query parameter.
	group.GET("/ws", r.wsHandler.Connect)

	authed := group.Group("", r.validator.Middleware())
	{
		authed.POST("/messages", r.chatHandler.SendMessage)
		authed.GET("/messages/:jobId", r.chatHandler.History)
		authed.PATCH("/messages/:id/read", r.chatHandler.MarkRead)
		authed.GET("/conversations", r.chatHandler.ListConversations)
	}
}
