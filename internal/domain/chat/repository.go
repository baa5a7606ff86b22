package chat

import (
	"context"
	"time"
)

// Repository defines the persistence operations for chat messages.
// Create must assign Message.Seq from a monotonic per-room sequence so that
// ordering is well defined even when timestamps collide.
type Repository interface {
	// Create durably stores a new message and fills in Seq and CreatedAt.
	Create(ctx context.Context, msg *Message) error

	// History returns one page of a room's messages ordered oldest-first
	// (created_at asc, seq as tie-breaker).
	History(ctx context.Context, jobID string, limit, offset int) ([]*Message, error)

	// GetByID retrieves a message by its public ID.
	GetByID(ctx context.Context, id string) (*Message, error)

	// MarkRead flips the read flag. Idempotent: marking an already-read
	// message is a no-op.
	MarkRead(ctx context.Context, id string) error

	// ListConversations derives the inbox view for a user: distinct
	// (job, counterparty) pairs ordered by most recent activity, with last
	// message and unread count.
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*Conversation, error)

	// DeleteOlderThan removes messages created before the cutoff and
	// returns the number of rows removed. Used by retention cleanup.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
