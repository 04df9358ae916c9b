// Package fileindex provides the PostgreSQL-backed file citation index
// repository.
package fileindex

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/database/entities"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// Repository persists file citation index entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a file citation index repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert records the entry. The unique index on file_id plus ON CONFLICT DO
// NOTHING makes re-inserting an existing file id a no-op, so the first
// writer's provenance survives concurrent uploads.
func (r *Repository) Insert(ctx context.Context, entry *domain.Entry) error {
	entity := entities.NewSchemaFileCitation(entry)

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}},
			DoNothing: true,
		}).
		Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert file citation",
			err,
			"fileindex-insert-db-error",
		)
	}

	entry.ID = entity.ID
	entry.CreatedAt = entity.CreatedAt
	return nil
}

// FindByFileID fetches the entry for a provider-assigned file id.
func (r *Repository) FindByFileID(ctx context.Context, fileID string) (*domain.Entry, error) {
	var entity entities.FileCitation
	if err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("file citation not found: %s", fileID),
				nil,
				"fileindex-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch file citation",
			err,
			"fileindex-fetch-db-error",
		)
	}
	return entity.EtoD(), nil
}

// AttachMessage fills in first-use provenance for fileID. The guard on
// message_public_id keeps the original context when the file is reused in a
// later message; zero matched rows is not an error.
func (r *Repository) AttachMessage(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.FileCitation{}).
		Where("file_id = ? AND message_public_id IS NULL", fileID).
		Updates(map[string]interface{}{
			"conversation_id":   conversationID,
			"message_public_id": messagePublicID,
		}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to attach file citation message",
			err,
			"fileindex-attach-db-error",
		)
	}
	return nil
}

// DeleteByConversationID removes every entry first used in the conversation.
func (r *Repository) DeleteByConversationID(ctx context.Context, conversationID uint) error {
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&entities.FileCitation{}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to purge file citations",
			err,
			"fileindex-purge-db-error",
		)
	}
	return nil
}
