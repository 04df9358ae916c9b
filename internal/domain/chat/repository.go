package chat

import (
	"context"
	"time"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/citation"
)

// ConversationRepository exposes CRUD operations for conversation metadata.
// Every write is an unconditional overwrite of a single column set; no
// read-modify-write cycles cross call boundaries.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	// ListByUserID returns the user's conversations, most recent activity first.
	ListByUserID(ctx context.Context, userID string) ([]*Conversation, error)
	UpdateName(ctx context.Context, id uint, name string) error
	// SetContinuationToken records the provider handle from a completed turn.
	SetContinuationToken(ctx context.Context, id uint, token string) error
	SetSearchIndexID(ctx context.Context, id uint, indexID string) error
	// TouchActivity bumps the recency timestamp used for listing order.
	TouchActivity(ctx context.Context, id uint, at time.Time) error
	// Delete removes the conversation and cascades to its messages.
	Delete(ctx context.Context, id uint) error
}

// CompletionUpdate carries the final metadata attached when an assistant
// message completes.
type CompletionUpdate struct {
	ProviderResponseID string
	Reasoning          string
	Citations          []citation.Citation
}

// MessageRepository persists individual messages. UpdateContent and
// UpdateReasoning overwrite the full stored text; callers own concatenation
// so the store never sees a shorter-then-longer-then-shorter sequence.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByPublicID(ctx context.Context, publicID string) (*Message, error)
	// ListByConversationID returns messages in insertion order.
	ListByConversationID(ctx context.Context, conversationID uint) ([]*Message, error)
	CountByConversationID(ctx context.Context, conversationID uint) (int64, error)
	// LatestUserMessage returns the most recent user message, the turn's input.
	LatestUserMessage(ctx context.Context, conversationID uint) (*Message, error)
	// HasTyping reports whether any message in the conversation is mid-generation.
	HasTyping(ctx context.Context, conversationID uint) (bool, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	UpdateReasoning(ctx context.Context, id uint, reasoning string) error
	// Complete finalizes the message as completed with its metadata.
	Complete(ctx context.Context, id uint, update CompletionUpdate) error
	// Fail finalizes the message as error with a user-visible detail.
	Fail(ctx context.Context, id uint, errorDetail string) error
}
