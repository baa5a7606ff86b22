package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"masterful/services/chat-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Message{}, &entities.RoomSequence{}); err != nil {
		return err
	}
	log.Info().Msg("applied chat message migrations")
	return nil
}
