// Package chatclient is the Go client for the chat service's realtime
// transport. It manages the WebSocket session, reconnects with exponential
// backoff, rejoins rooms transparently, and exposes typed event
// subscriptions.
package chatclient

import (
	"errors"
	"time"
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	// ErrAuthentication is returned when no token is configured or the
	// server rejects the credentials.
	ErrAuthentication = errors.New("chatclient: authentication failed")
	// ErrConnection is returned when every reconnect attempt is exhausted.
	ErrConnection = errors.New("chatclient: connection failed")
	// ErrClosed is returned from operations on a disconnected client.
	ErrClosed = errors.New("chatclient: client is closed")
)

// MessageType mirrors the server's payload discriminator.
type MessageType string

const (
	TypeText     MessageType = "TEXT"
	TypeImage    MessageType = "IMAGE"
	TypeFile     MessageType = "FILE"
	TypeLocation MessageType = "LOCATION"
)

// Message is the wire representation of a chat message.
type Message struct {
	ID          string      `json:"id"`
	JobID       string      `json:"job_id"`
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id"`
	Type        MessageType `json:"message_type"`
	Payload     Payload     `json:"payload"`
	Seq         int64       `json:"seq"`
	IsRead      bool        `json:"is_read"`
	ReadAt      *time.Time  `json:"read_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Payload is the typed message content. Exactly one variant is set.
type Payload struct {
	Text     *TextPayload       `json:"text,omitempty"`
	Image    *AttachmentPayload `json:"image,omitempty"`
	File     *AttachmentPayload `json:"file,omitempty"`
	Location *LocationPayload   `json:"location,omitempty"`
}

// TextPayload carries a plain text body.
type TextPayload struct {
	Body string `json:"body"`
}

// AttachmentPayload references an uploaded image or file.
type AttachmentPayload struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// LocationPayload carries geographic coordinates.
type LocationPayload struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// TypingEvent is the ephemeral typing signal for a job room.
type TypingEvent struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// PresenceEvent signals a user entering or leaving a job room.
type PresenceEvent struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

type frameType string

const (
	frameJoin     frameType = "join"
	frameLeave    frameType = "leave"
	frameTyping   frameType = "typing"
	frameMessage  frameType = "message"
	framePresence frameType = "presence"
	frameError    frameType = "error"
)

// frame is the WebSocket wire format shared with the server.
type frame struct {
	Type     frameType      `json:"type"`
	JobID    string         `json:"job_id,omitempty"`
	Message  *Message       `json:"message,omitempty"`
	Typing   *TypingEvent   `json:"typing,omitempty"`
	Presence *PresenceEvent `json:"presence,omitempty"`
	Error    string         `json:"error,omitempty"`
}
