package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/database/entities"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

// Repository handles chat message persistence on PostgreSQL.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a message, assigning the next per-room sequence inside the
// same transaction so two concurrent senders never share a seq.
func (r *Repository) Create(ctx context.Context, msg *domain.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq int64
		err := tx.Raw(
			`INSERT INTO chat_room_sequences (job_id, last_seq) VALUES (?, 1)
			 ON CONFLICT (job_id) DO UPDATE SET last_seq = chat_room_sequences.last_seq + 1
			 RETURNING last_seq`,
			msg.JobID,
		).Scan(&seq).Error
		if err != nil {
			return err
		}

		msg.Seq = seq
		entity := entities.NewMessageEntity(msg)
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		msg.CreatedAt = entity.CreatedAt
		return nil
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create message",
			err,
			"8d3a1b2c-6e0f-4cbd-b81f-de93a57c2ba8",
		)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, jobID string, limit, offset int) ([]*domain.Message, error) {
	var rows []entities.Message
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, seq ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load history",
			err,
			"9e4b2c3d-7f10-4dce-c92a-ef04b68d3cb9",
		)
	}

	result := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].EtoD())
	}
	return result, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var entity entities.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get message by id",
			err,
			"0f5c3d4e-8021-4edf-da3b-f015c79e4dca",
		)
	}
	return entity.EtoD(), nil
}

func (r *Repository) MarkRead(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&entities.Message{}).
		Where("id = ? AND is_read = false", id).
		Updates(map[string]any{"is_read": true, "read_at": now})
	if res.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to mark message read",
			res.Error,
			"1a6d4e5f-9132-4f01-eb4c-0126d80f5eab",
		)
	}
	// Zero rows affected means either missing or already read. Already-read
	// is a valid no-op; distinguish by existence.
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entities.Message{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to check message existence",
				err,
				"2b7e5f60-a243-4012-fc5d-1237e91a6bbc",
			)
		}
		if count == 0 {
			return domain.ErrMessageNotFound
		}
	}
	return nil
}

// conversationRow is the grouped shape returned by the inbox query.
type conversationRow struct {
	JobID          string
	CounterpartyID string
	LastActivityAt time.Time
	UnreadCount    int64
}

func (r *Repository) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
	var groups []conversationRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT job_id,
		        CASE WHEN sender_id = @user THEN recipient_id ELSE sender_id END AS counterparty_id,
		        MAX(created_at) AS last_activity_at,
		        COUNT(*) FILTER (WHERE recipient_id = @user AND is_read = false) AS unread_count
		 FROM chat_messages
		 WHERE sender_id = @user OR recipient_id = @user
		 GROUP BY job_id, counterparty_id
		 ORDER BY last_activity_at DESC
		 LIMIT @limit OFFSET @offset`,
		map[string]any{"user": userID, "limit": limit, "offset": offset},
	).Scan(&groups).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"3c8f6071-b354-4123-0d6e-2348fa2b7ccd",
		)
	}

	result := make([]*domain.Conversation, 0, len(groups))
	for _, g := range groups {
		conv := &domain.Conversation{
			JobID:          g.JobID,
			CounterpartyID: g.CounterpartyID,
			UnreadCount:    g.UnreadCount,
			LastActivityAt: g.LastActivityAt,
		}

		var last entities.Message
		err := r.db.WithContext(ctx).
			Where("job_id = ?", g.JobID).
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				userID, g.CounterpartyID, g.CounterpartyID, userID).
			Order("created_at DESC, seq DESC").
			First(&last).Error
		if err == nil {
			conv.LastMessage = last.EtoD()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to load last message",
				err,
				"4d907182-c465-4234-1e7f-3459ab3c8dde",
			)
		}

		result = append(result, conv)
	}
	return result, nil
}

func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entities.Message{})
	if res.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete expired messages",
			res.Error,
			"5ea18293-d576-4345-2f80-456abc4d9eef",
		)
	}
	return res.RowsAffected, nil
}
