// Package chat provides the PostgreSQL-backed repositories for conversations
// and messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/database/entities"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// ConversationRepository persists conversation metadata.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository builds a conversation repository.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts the conversation record.
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"conversation-create-db-error",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID fetches a conversation by its public ID.
func (r *ConversationRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"conversation-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"conversation-fetch-db-error",
		)
	}

	return entity.EtoD(), nil
}

// FindByID fetches a conversation by its internal ID.
func (r *ConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %d", id),
				nil,
				"conversation-find-by-id-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"conversation-find-by-id-db-error",
		)
	}
	return entity.EtoD(), nil
}

// ListByUserID returns the user's conversations ordered by most recent
// activity.
func (r *ConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity_at DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"conversation-list-db-error",
		)
	}

	conversations := make([]*domain.Conversation, len(rows))
	for i := range rows {
		conversations[i] = rows[i].EtoD()
	}
	return conversations, nil
}

// UpdateName renames the conversation.
func (r *ConversationRepository) UpdateName(ctx context.Context, id uint, name string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"name": name}, "conversation-update-name")
}

// SetContinuationToken records the provider handle from a completed turn.
func (r *ConversationRepository) SetContinuationToken(ctx context.Context, id uint, token string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"continuation_token": token}, "conversation-set-token")
}

// SetSearchIndexID records the lazily created similarity index handle.
func (r *ConversationRepository) SetSearchIndexID(ctx context.Context, id uint, indexID string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"search_index_id": indexID}, "conversation-set-index")
}

// TouchActivity bumps the recency timestamp used for listing order.
func (r *ConversationRepository) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"last_activity_at": at}, "conversation-touch-activity")
}

// Delete removes the conversation. Messages go with it via the foreign key
// cascade.
func (r *ConversationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Conversation{}, id)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversation",
			result.Error,
			"conversation-delete-db-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"conversation-delete-not-found",
		)
	}
	return nil
}

func (r *ConversationRepository) updateColumns(ctx context.Context, id uint, columns map[string]interface{}, uuid string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation",
			result.Error,
			uuid+"-db-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			uuid+"-not-found",
		)
	}
	return nil
}
