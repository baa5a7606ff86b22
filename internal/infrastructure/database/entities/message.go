package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"masterful/services/chat-api/internal/domain/chat"
)

// Message is the persisted form of a chat message.
type Message struct {
	ID          string      `gorm:"type:varchar(40);primaryKey"`
	JobID       string      `gorm:"type:varchar(64);index:idx_message_job_seq,priority:1;not null"`
	SenderID    string      `gorm:"type:varchar(64);index;not null"`
	RecipientID string      `gorm:"type:varchar(64);index:idx_message_recipient_unread,priority:1;not null"`
	Type        string      `gorm:"type:varchar(16);not null"`
	Payload     JSONPayload `gorm:"type:jsonb;not null"`
	Seq         int64       `gorm:"index:idx_message_job_seq,priority:2;not null"`
	IsRead      bool        `gorm:"index:idx_message_recipient_unread,priority:2;not null;default:false"`
	ReadAt      *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "chat_messages"
}

// RoomSequence holds the next per-room sequence number. One row per job.
type RoomSequence struct {
	JobID   string `gorm:"type:varchar(64);primaryKey"`
	LastSeq int64  `gorm:"not null;default:0"`
}

func (RoomSequence) TableName() string {
	return "chat_room_sequences"
}

// JSONPayload stores the typed message payload as JSON.
type JSONPayload chat.Payload

func (j JSONPayload) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONPayload) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// NewMessageEntity creates a database entity from a domain message.
func NewMessageEntity(m *chat.Message) *Message {
	return &Message{
		ID:          m.ID,
		JobID:       m.JobID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Type:        string(m.Type),
		Payload:     JSONPayload(m.Payload),
		Seq:         m.Seq,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// EtoD converts a database entity to a domain message.
func (m *Message) EtoD() *chat.Message {
	return &chat.Message{
		ID:          m.ID,
		JobID:       m.JobID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Type:        chat.MessageType(m.Type),
		Payload:     chat.Payload(m.Payload),
		Seq:         m.Seq,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}
