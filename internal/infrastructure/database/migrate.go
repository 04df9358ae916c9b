package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the chat domain.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Conversation{},
		&entities.Message{},
		&entities.FileCitation{},
		&entities.Job{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
