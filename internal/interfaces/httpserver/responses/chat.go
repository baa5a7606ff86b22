package responses

import (
	"masterful/services/chat-api/internal/domain/chat"
)

// MessageListResponse is the payload for history listings.
type MessageListResponse struct {
	JobID    string          `json:"job_id"`
	Messages []*chat.Message `json:"messages"`
	Count    int             `json:"count"`
}

// ConversationListResponse is the payload for the inbox listing. Each entry
// carries a short preview of its last message.
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Count         int                    `json:"count"`
}

// ConversationResponse is one inbox entry.
type ConversationResponse struct {
	JobID          string        `json:"job_id"`
	CounterpartyID string        `json:"counterparty_id"`
	LastMessage    *chat.Message `json:"last_message,omitempty"`
	Preview        string        `json:"preview"`
	UnreadCount    int64         `json:"unread_count"`
	LastActivityAt string        `json:"last_activity_at"`
}

// NewMessageListResponse builds the history payload.
func NewMessageListResponse(jobID string, messages []*chat.Message) MessageListResponse {
	if messages == nil {
		messages = []*chat.Message{}
	}
	return MessageListResponse{JobID: jobID, Messages: messages, Count: len(messages)}
}

// NewConversationListResponse builds the inbox payload.
func NewConversationListResponse(conversations []*chat.Conversation) ConversationListResponse {
	out := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		entry := ConversationResponse{
			JobID:          conv.JobID,
			CounterpartyID: conv.CounterpartyID,
			LastMessage:    conv.LastMessage,
			UnreadCount:    conv.UnreadCount,
			LastActivityAt: conv.LastActivityAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if conv.LastMessage != nil {
			entry.Preview = conv.LastMessage.Preview()
		}
		out = append(out, entry)
	}
	return ConversationListResponse{Conversations: out, Count: len(out)}
}
