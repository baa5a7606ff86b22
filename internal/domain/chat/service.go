package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/utils/idgen"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

// Broadcaster fans a persisted message out to the live subscribers of its
// job room. Implemented by the realtime hub.
type Broadcaster interface {
	BroadcastMessage(jobID string, msg *Message) error
}

// SendRequest carries the parameters for sending one message.
type SendRequest struct {
	JobID       string
	SenderID    string
	RecipientID string
	Type        MessageType
	Payload     Payload
}

// Service defines the business operations for messaging.
type Service interface {
	Send(ctx context.Context, req SendRequest) (*Message, error)
	History(ctx context.Context, jobID string, limit, offset int) ([]*Message, error)
	MarkRead(ctx context.Context, messageID, readerID string) (*Message, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*Conversation, error)
}

// Metrics receives counters from the service. Kept as a narrow interface so
// unit tests can run without a Prometheus registry.
type Metrics interface {
	RecordMessageSent(messageType string)
	RecordBroadcastFailure()
	RecordSendDuration(seconds float64)
}

type service struct {
	repo          Repository
	broadcaster   Broadcaster
	metrics       Metrics
	maxTextLength int
	pageLimit     int
	log           zerolog.Logger
}

// NewService creates a new chat service.
func NewService(repo Repository, broadcaster Broadcaster, metrics Metrics, maxTextLength, pageLimit int, log zerolog.Logger) Service {
	return &service{
		repo:          repo,
		broadcaster:   broadcaster,
		metrics:       metrics,
		maxTextLength: maxTextLength,
		pageLimit:     pageLimit,
		log:           log.With().Str("component", "chat-service").Logger(),
	}
}

// Send validates, persists, then broadcasts. The write happens before the
// broadcast so a message can never be seen live without surviving a reload.
// A failed broadcast after a successful write is logged and reconciled by
// the next history fetch.
func (s *service) Send(ctx context.Context, req SendRequest) (*Message, error) {
	start := time.Now()
	if req.JobID == "" || req.SenderID == "" || req.RecipientID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"job_id, sender_id and recipient_id are required", nil, "1f6c0a4d-93f2-4f4e-b1a8-6d2c9e0b5a31")
	}
	if err := req.Payload.Validate(req.Type, s.maxTextLength); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "2a7d1b5e-04a3-4c5f-92b9-7e3daf1c6b42")
	}

	id, err := idgen.GenerateSecureID("msg", 24)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	msg := &Message{
		ID:          id,
		JobID:       req.JobID,
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Payload:     req.Payload,
	}

	// Persistence failures are retried once locally before surfacing.
	if err := s.repo.Create(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("job_id", req.JobID).Msg("message write failed, retrying once")
		if err := s.repo.Create(ctx, msg); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDatabaseError,
				"failed to persist message", err, "3b8e2c6f-15b4-4d6a-a3ca-8f4eb02d7c53")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent(string(msg.Type))
	}

	if err := s.broadcaster.BroadcastMessage(msg.JobID, msg); err != nil {
		// Non-fatal: the message is durable and will appear on the next
		// history fetch.
		if s.metrics != nil {
			s.metrics.RecordBroadcastFailure()
		}
		s.log.Warn().Err(err).
			Str("message_id", msg.ID).
			Str("job_id", msg.JobID).
			Msg("broadcast failed after persist")
	}

	if s.metrics != nil {
		s.metrics.RecordSendDuration(time.Since(start).Seconds())
	}
	return msg, nil
}

func (s *service) History(ctx context.Context, jobID string, limit, offset int) ([]*Message, error) {
	if jobID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"job_id is required", nil, "4c9f3d7a-26c5-4e7b-b4db-9a5fc13e8d64")
	}
	if limit <= 0 || limit > s.pageLimit {
		limit = s.pageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.History(ctx, jobID, limit, offset)
}

// MarkRead flips the read flag for the recipient. Calling it twice on the
// same message is a no-op the second time.
func (s *service) MarkRead(ctx context.Context, messageID, readerID string) (*Message, error) {
	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != readerID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"only the recipient may mark a message read", nil, "5da04e8b-37d6-4f8c-85ec-ab60d24f9e75")
	}
	if msg.IsRead {
		return msg, nil
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, messageID)
}

func (s *service) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*Conversation, error) {
	if userID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"user_id is required", nil, "6eb15f9c-48e7-4a9d-96fd-bc71e35a0f86")
	}
	if limit <= 0 || limit > s.pageLimit {
		limit = s.pageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListConversations(ctx, userID, limit, offset)
}
