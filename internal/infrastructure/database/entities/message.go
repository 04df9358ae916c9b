package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/citation"
)

// Message represents the database schema for conversation messages. Files and
// Citations are stored as jsonb documents; neither is queried relationally.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint   `gorm:"index:idx_message_conversation;not null"`
	Role           string `gorm:"type:varchar(20);not null"`
	Content        string `gorm:"type:text;not null;default:''"`

	// Status is empty for user messages; assistant messages move
	// typing -> completed|error.
	Status string `gorm:"type:varchar(20);index:idx_message_conversation_status;not null;default:''"`

	Files datatypes.JSON `gorm:"type:jsonb"`

	ProviderResponseID *string        `gorm:"type:varchar(128)"`
	Reasoning          string         `gorm:"type:text;not null;default:''"`
	Citations          datatypes.JSON `gorm:"type:jsonb"`
	ErrorDetail        *string        `gorm:"type:text"`

	ModelID          string `gorm:"type:varchar(100);not null;default:''"`
	ReasoningEffort  string `gorm:"type:varchar(20);not null;default:''"`
	WebSearchEnabled bool   `gorm:"not null;default:false"`
	Timezone         string `gorm:"type:varchar(64);not null;default:''"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts database entity to domain model.
func (m *Message) EtoD() *chat.Message {
	var files []chat.FileRef
	if len(m.Files) > 0 {
		// A decode failure leaves the attachment list empty rather than
		// failing the read.
		_ = json.Unmarshal(m.Files, &files)
	}

	var citations []citation.Citation
	if len(m.Citations) > 0 {
		_ = json.Unmarshal(m.Citations, &citations)
	}

	return &chat.Message{
		ID:                 m.ID,
		PublicID:           m.PublicID,
		ConversationID:     m.ConversationID,
		Role:               chat.Role(m.Role),
		Content:            m.Content,
		Status:             chat.MessageStatus(m.Status),
		Files:              files,
		ProviderResponseID: m.ProviderResponseID,
		Reasoning:          m.Reasoning,
		Citations:          citations,
		ErrorDetail:        m.ErrorDetail,
		ModelID:            m.ModelID,
		ReasoningEffort:    m.ReasoningEffort,
		WebSearchEnabled:   m.WebSearchEnabled,
		Timezone:           m.Timezone,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model.
func NewSchemaMessage(m *chat.Message) (*Message, error) {
	entity := &Message{
		ID:                 m.ID,
		PublicID:           m.PublicID,
		ConversationID:     m.ConversationID,
		Role:               string(m.Role),
		Content:            m.Content,
		Status:             string(m.Status),
		ProviderResponseID: m.ProviderResponseID,
		Reasoning:          m.Reasoning,
		ErrorDetail:        m.ErrorDetail,
		ModelID:            m.ModelID,
		ReasoningEffort:    m.ReasoningEffort,
		WebSearchEnabled:   m.WebSearchEnabled,
		Timezone:           m.Timezone,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}

	if len(m.Files) > 0 {
		raw, err := json.Marshal(m.Files)
		if err != nil {
			return nil, err
		}
		entity.Files = raw
	}
	if len(m.Citations) > 0 {
		raw, err := json.Marshal(m.Citations)
		if err != nil {
			return nil, err
		}
		entity.Citations = raw
	}

	return entity, nil
}

// MarshalCitations encodes a citation list for a jsonb column update.
func MarshalCitations(citations []citation.Citation) (datatypes.JSON, error) {
	if len(citations) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(citations)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
