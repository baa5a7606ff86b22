package chat

import (
	"errors"
	"time"
)

// MessageType selects the payload variant a message carries.
type MessageType string

const (
	TypeText     MessageType = "TEXT"
	TypeImage    MessageType = "IMAGE"
	TypeFile     MessageType = "FILE"
	TypeLocation MessageType = "LOCATION"
)

// Sentinel errors shared by the storage backends.
var (
	// ErrMessageNotFound is returned when a message ID does not exist.
	ErrMessageNotFound = errors.New("message not found")
)

// Message is a chat message exchanged within a job room. Immutable after
// creation except for the read flag.
type Message struct {
	ID          string      `json:"id"`
	JobID       string      `json:"job_id"`
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id"`
	Type        MessageType `json:"message_type"`
	Payload     Payload     `json:"payload"`
	// Seq is a server-assigned monotonic sequence per job room. It breaks
	// ordering ties between messages with colliding timestamps.
	Seq       int64      `json:"seq"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Payload is the typed content of a message. Exactly one variant is set,
// selected by the message type.
type Payload struct {
	Text     *TextPayload       `json:"text,omitempty"`
	Image    *AttachmentPayload `json:"image,omitempty"`
	File     *AttachmentPayload `json:"file,omitempty"`
	Location *LocationPayload   `json:"location,omitempty"`
}

// TextPayload carries a plain text message body.
type TextPayload struct {
	Body string `json:"body"`
}

// AttachmentPayload describes an image or file attachment by reference.
// The binary itself lives in external storage.
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

// Validate checks that the payload variant matches the message type and
// satisfies the per-variant constraints. maxTextLength bounds TEXT bodies.
func (p Payload) Validate(msgType MessageType, maxTextLength int) error {
	switch msgType {
	case TypeText:
		if p.Text == nil {
			return errors.New("text payload is required for TEXT messages")
		}
		if len(p.Text.Body) < 1 || len(p.Text.Body) > maxTextLength {
			return errors.New("text body must be between 1 and max length characters")
		}
	case TypeImage:
		if p.Image == nil || p.Image.URL == "" {
			return errors.New("image payload with url is required for IMAGE messages")
		}
	case TypeFile:
		if p.File == nil || p.File.URL == "" {
			return errors.New("file payload with url is required for FILE messages")
		}
	case TypeLocation:
		if p.Location == nil {
			return errors.New("location payload is required for LOCATION messages")
		}
		if p.Location.Lat < -90 || p.Location.Lat > 90 || p.Location.Lng < -180 || p.Location.Lng > 180 {
			return errors.New("location coordinates out of range")
		}
	default:
		return errors.New("unknown message type")
	}
	return nil
}

// Preview returns a short human-readable rendering of the payload, used for
// conversation list snippets.
func (m *Message) Preview() string {
	switch m.Type {
	case TypeText:
		if m.Payload.Text != nil {
			return m.Payload.Text.Body
		}
	case TypeImage:
		if m.Payload.Image != nil && m.Payload.Image.Caption != "" {
			return m.Payload.Image.Caption
		}
		return "[imagine]"
	case TypeFile:
		if m.Payload.File != nil && m.Payload.File.Caption != "" {
			return m.Payload.File.Caption
		}
		return "[fișier]"
	case TypeLocation:
		if m.Payload.Location != nil && m.Payload.Location.Label != "" {
			return m.Payload.Location.Label
		}
		return "[locație]"
	}
	return ""
}

// Conversation is the derived inbox entry for one (job, counterparty) pair.
// It is computed from the message store on each listing, never persisted.
type Conversation struct {
	JobID          string    `json:"job_id"`
	CounterpartyID string    `json:"counterparty_id"`
	LastMessage    *Message  `json:"last_message,omitempty"`
	UnreadCount    int64     `json:"unread_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// TypingEvent is the ephemeral typing signal relayed through a job room.
// Never persisted, never retried.
type TypingEvent struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}
