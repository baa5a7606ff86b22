package realtime

import (
	"masterful/services/chat-api/internal/domain/chat"
)

// FrameType identifies a realtime frame.
type FrameType string

const (
	// Client -> server control frames.
	FrameJoin  FrameType = "join"
	FrameLeave FrameType = "leave"

	// Bidirectional event frames.
	FrameTyping FrameType = "typing"

	// Server -> client event frames.
	FrameMessage  FrameType = "message"
	FramePresence FrameType = "presence"
	FrameError    FrameType = "error"
)

// Frame is the wire format exchanged over the WebSocket. Exactly one of the
// payload fields is set, selected by Type.
type Frame struct {
	Type     FrameType         `json:"type"`
	JobID    string            `json:"job_id,omitempty"`
	Message  *chat.Message     `json:"message,omitempty"`
	Typing   *chat.TypingEvent `json:"typing,omitempty"`
	Presence *PresenceEvent    `json:"presence,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// PresenceEvent signals a user entering or leaving a job room. Ephemeral,
// never persisted.
type PresenceEvent struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// RoomName derives the broadcast channel name for a job. The job is the
// partition key: messages are never delivered across rooms.
func RoomName(jobID string) string {
	return "job-" + jobID
}
