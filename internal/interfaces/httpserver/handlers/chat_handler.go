package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/interfaces/httpserver/requests"
	"masterful/services/chat-api/internal/interfaces/httpserver/responses"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

// ChatHandler serves the messaging REST endpoints.
type ChatHandler struct {
	service chat.Service
	log     zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service chat.Service, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With().Str("component", "chat-handler").Logger(),
	}
}

// SendMessage handles POST /v1/messages. The sender is always the
// authenticated user.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	msg, err := h.service.Send(c.Request.Context(), chat.SendRequest{
		JobID:       req.JobID,
		SenderID:    currentUserID(c),
		RecipientID: req.RecipientID,
		Type:        req.MessageType,
		Payload:     req.Payload,
	})
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	responses.Created(c, msg)
}

// History handles GET /v1/messages/:jobId. Messages come back oldest first.
func (h *ChatHandler) History(c *gin.Context) {
	jobID := c.Param("jobId")

	var query requests.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	messages, err := h.service.History(c.Request.Context(), jobID, query.Limit, query.Offset)
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	responses.OK(c, responses.NewMessageListResponse(jobID, messages))
}

// MarkRead handles PATCH /v1/messages/:id/read. Only the recipient may mark
// a message read; repeated calls are no-ops.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	messageID := c.Param("id")

	msg, err := h.service.MarkRead(c.Request.Context(), messageID, currentUserID(c))
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	responses.OK(c, msg)
}

// ListConversations handles GET /v1/conversations for the authenticated user.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	var query requests.ConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	conversations, err := h.service.ListConversations(c.Request.Context(), currentUserID(c), query.Limit, query.Offset)
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}

	responses.OK(c, responses.NewConversationListResponse(conversations))
}

// currentUserID returns the authenticated user set by the auth middleware.
// Falls back to the user_id query parameter when auth is disabled.
func currentUserID(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if userID, valid := id.(string); valid && userID != "" {
			return userID
		}
	}
	return c.Query("user_id")
}
