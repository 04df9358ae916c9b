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

// MessageRepository persists conversation messages.
//
// Content and reasoning updates overwrite the whole column with the caller's
// concatenated text; RowsAffected == 0 is reported as not-found so streaming
// code can detect a row deleted mid-generation.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository builds a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts the message record.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	entity, err := entities.NewSchemaMessage(msg)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode message",
			err,
			"message-encode-error",
		)
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create message",
			err,
			"message-create-db-error",
		)
	}

	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	msg.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID fetches a message by its public ID.
func (r *MessageRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Message, error) {
	var entity entities.Message
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("message not found: %s", publicID),
				nil,
				"message-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch message",
			err,
			"message-fetch-db-error",
		)
	}
	return entity.EtoD(), nil
}

// ListByConversationID returns the conversation's messages in insertion order.
func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID uint) ([]*domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list messages",
			err,
			"message-list-db-error",
		)
	}

	messages := make([]*domain.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].EtoD()
	}
	return messages, nil
}

// CountByConversationID returns the number of messages in the conversation.
func (r *MessageRepository) CountByConversationID(ctx context.Context, conversationID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count messages",
			err,
			"message-count-db-error",
		)
	}
	return count, nil
}

// LatestUserMessage returns the most recent user message, the turn's input.
func (r *MessageRepository) LatestUserMessage(ctx context.Context, conversationID uint) (*domain.Message, error) {
	var entity entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND role = ?", conversationID, string(domain.RoleUser)).
		Order("id DESC").
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("no user message in conversation %d", conversationID),
				nil,
				"message-latest-user-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch latest user message",
			err,
			"message-latest-user-db-error",
		)
	}
	return entity.EtoD(), nil
}

// HasTyping reports whether any message in the conversation is mid-generation.
func (r *MessageRepository) HasTyping(ctx context.Context, conversationID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ? AND status = ?", conversationID, string(domain.StatusTyping)).
		Count(&count).Error; err != nil {
		return false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to check typing state",
			err,
			"message-typing-db-error",
		)
	}
	return count > 0, nil
}

// UpdateContent overwrites the stored content.
func (r *MessageRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"content": content}, "message-update-content")
}

// UpdateReasoning overwrites the stored reasoning summary.
func (r *MessageRepository) UpdateReasoning(ctx context.Context, id uint, reasoning string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"reasoning": reasoning}, "message-update-reasoning")
}

// Complete finalizes the message as completed with its metadata.
func (r *MessageRepository) Complete(ctx context.Context, id uint, update domain.CompletionUpdate) error {
	columns := map[string]interface{}{
		"status": string(domain.StatusCompleted),
	}
	if update.ProviderResponseID != "" {
		columns["provider_response_id"] = update.ProviderResponseID
	}
	if update.Reasoning != "" {
		columns["reasoning"] = update.Reasoning
	}
	if len(update.Citations) > 0 {
		raw, err := entities.MarshalCitations(update.Citations)
		if err != nil {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeInternal,
				"failed to encode citations",
				err,
				"message-complete-encode-error",
			)
		}
		columns["citations"] = raw
	}
	return r.updateColumns(ctx, id, columns, "message-complete")
}

// Fail finalizes the message as error with a user-visible detail.
func (r *MessageRepository) Fail(ctx context.Context, id uint, errorDetail string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"status":       string(domain.StatusError),
		"error_detail": errorDetail,
	}, "message-fail")
}

func (r *MessageRepository) updateColumns(ctx context.Context, id uint, columns map[string]interface{}, uuid string) error {
	columns["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update message",
			result.Error,
			uuid+"-db-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("message not found: %d", id),
			nil,
			uuid+"-not-found",
		)
	}
	return nil
}
