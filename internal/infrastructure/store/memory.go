package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/domain/chat"
)

// MemoryStore is a mutex-based in-memory message store. It backs the
// "memory" storage backend and the unit tests. Thread-safe via sync.RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string][]*chat.Message // jobID -> messages in insertion order
	byID     map[string]*chat.Message
	sequence map[string]int64 // jobID -> last assigned seq
	log      zerolog.Logger
}

var _ chat.Repository = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory message store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string][]*chat.Message),
		byID:     make(map[string]*chat.Message),
		sequence: make(map[string]int64),
		log:      log.With().Str("component", "memory-store").Logger(),
	}
}

// Create stores a new message and assigns the room's next sequence number.
func (s *MemoryStore) Create(ctx context.Context, msg *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence[msg.JobID]++
	msg.Seq = s.sequence[msg.JobID]
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	stored := *msg
	s.rooms[msg.JobID] = append(s.rooms[msg.JobID], &stored)
	s.byID[msg.ID] = &stored
	return nil
}

func (s *MemoryStore) History(ctx context.Context, jobID string, limit, offset int) ([]*chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.rooms[jobID]
	ordered := make([]*chat.Message, len(room))
	copy(ordered, room)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	if offset >= len(ordered) {
		return []*chat.Message{}, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	page := make([]*chat.Message, 0, end-offset)
	for _, m := range ordered[offset:end] {
		cp := *m
		page = append(page, &cp)
	}
	return page, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return chat.ErrMessageNotFound
	}
	if msg.IsRead {
		return nil
	}
	now := time.Now().UTC()
	msg.IsRead = true
	msg.ReadAt = &now
	return nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		jobID          string
		counterpartyID string
	}
	convs := make(map[key]*chat.Conversation)

	for jobID, room := range s.rooms {
		for _, msg := range room {
			var counterparty string
			switch userID {
			case msg.SenderID:
				counterparty = msg.RecipientID
			case msg.RecipientID:
				counterparty = msg.SenderID
			default:
				continue
			}

			k := key{jobID: jobID, counterpartyID: counterparty}
			conv, ok := convs[k]
			if !ok {
				conv = &chat.Conversation{
					JobID:          jobID,
					CounterpartyID: counterparty,
				}
				convs[k] = conv
			}

			if conv.LastMessage == nil || laterThan(msg, conv.LastMessage) {
				cp := *msg
				conv.LastMessage = &cp
				conv.LastActivityAt = msg.CreatedAt
			}
			if msg.RecipientID == userID && !msg.IsRead {
				conv.UnreadCount++
			}
		}
	}

	result := make([]*chat.Conversation, 0, len(convs))
	for _, conv := range convs {
		result = append(result, conv)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})

	if offset >= len(result) {
		return []*chat.Conversation{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for jobID, room := range s.rooms {
		kept := room[:0]
		for _, msg := range room {
			if msg.CreatedAt.Before(cutoff) {
				delete(s.byID, msg.ID)
				removed++
				continue
			}
			kept = append(kept, msg)
		}
		s.rooms[jobID] = kept
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("purged expired messages")
	}
	return removed, nil
}

func laterThan(a, b *chat.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.Seq > b.Seq
	}
	return a.CreatedAt.After(b.CreatedAt)
}
