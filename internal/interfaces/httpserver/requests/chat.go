package requests

import (
	"masterful/services/chat-api/internal/domain/chat"
)

// SendMessageRequest is the body for POST /v1/messages.
type SendMessageRequest struct {
	JobID       string           `json:"job_id" binding:"required,notblank"`
	RecipientID string           `json:"recipient_id" binding:"required,notblank"`
	MessageType chat.MessageType `json:"message_type" binding:"required,oneof=TEXT IMAGE FILE LOCATION"`
	Payload     chat.Payload     `json:"payload" binding:"required"`
}

// HistoryQuery holds pagination parameters for GET /v1/messages/:jobId.
type HistoryQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ConversationsQuery holds pagination parameters for GET /v1/conversations.
type ConversationsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
