package entities

import (
	"time"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
)

// Conversation represents the database schema for chat conversations.
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string `gorm:"type:varchar(64);index:idx_conversation_user_activity;not null"`
	Name     string `gorm:"type:varchar(256);not null"`

	// Opaque provider handles. The continuation token resumes a multi-turn
	// exchange; the search index id scopes file search to this conversation.
	ContinuationToken *string `gorm:"type:varchar(128)"`
	SearchIndexID     *string `gorm:"type:varchar(128)"`

	LastActivityAt time.Time `gorm:"index:idx_conversation_user_activity;not null"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// EtoD converts database entity to domain model.
func (c *Conversation) EtoD() *chat.Conversation {
	return &chat.Conversation{
		ID:                c.ID,
		PublicID:          c.PublicID,
		UserID:            c.UserID,
		Name:              c.Name,
		ContinuationToken: c.ContinuationToken,
		SearchIndexID:     c.SearchIndexID,
		LastActivityAt:    c.LastActivityAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model.
func NewSchemaConversation(c *chat.Conversation) *Conversation {
	return &Conversation{
		ID:                c.ID,
		PublicID:          c.PublicID,
		UserID:            c.UserID,
		Name:              c.Name,
		ContinuationToken: c.ContinuationToken,
		SearchIndexID:     c.SearchIndexID,
		LastActivityAt:    c.LastActivityAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
