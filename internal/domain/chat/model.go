package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/citation"
)

// ===============================================
// Conversation
// ===============================================

// Conversation is one chat thread owned by a single user.
//
// ContinuationToken is the opaque provider handle that lets a multi-turn
// exchange resume without resending history. It is only ever written from the
// terminal event of a successfully completed generation, never from a partial
// or aborted one. SearchIndexID is the opaque handle to the provider-side
// similarity index scoped to this conversation's uploaded files; it is created
// lazily on first upload.
type Conversation struct {
	ID                uint      `json:"-"`
	PublicID          string    `json:"id"`
	UserID            string    `json:"-"`
	Name              string    `json:"name"`
	ContinuationToken *string   `json:"-"`
	SearchIndexID     *string   `json:"-"`
	LastActivityAt    time.Time `json:"last_activity_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ===============================================
// Message
// ===============================================

// Role indicates who authored the message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks the assistant message lifecycle. User messages carry
// no status. StatusTyping is strictly transient: every typing message becomes
// completed or error before it is final.
type MessageStatus string

const (
	StatusTyping    MessageStatus = "typing"
	StatusCompleted MessageStatus = "completed"
	StatusError     MessageStatus = "error"
)

// FileRef is one file attached to a user message, identified by the
// provider-assigned file id.
type FileRef struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// Message is a single turn entry within a conversation.
type Message struct {
	ID             uint          `json:"-"`
	PublicID       string        `json:"id"`
	ConversationID uint          `json:"-"`
	Role           Role          `json:"role"`
	Content        string        `json:"content"`
	Status         MessageStatus `json:"status,omitempty"`

	Files []FileRef `json:"files,omitempty"`

	// Assistant-only fields.
	ProviderResponseID *string             `json:"provider_response_id,omitempty"`
	Reasoning          string              `json:"reasoning,omitempty"`
	Citations          []citation.Citation `json:"citations,omitempty"`
	ErrorDetail        *string             `json:"error_detail,omitempty"`

	// Request selections recorded on the message.
	ModelID          string `json:"model"`
	ReasoningEffort  string `json:"reasoning_effort,omitempty"`
	WebSearchEnabled bool   `json:"web_search_enabled"`
	Timezone         string `json:"timezone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFinal reports whether the message left the transient typing state.
func (m *Message) IsFinal() bool {
	return m.Status == StatusCompleted || m.Status == StatusError
}

// NewConversation creates a conversation for userID with a placeholder name.
func NewConversation(userID, name string) *Conversation {
	now := time.Now()
	return &Conversation{
		PublicID:       newPublicID("conv"),
		UserID:         userID,
		Name:           name,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewUserMessage creates the synchronous user half of a turn.
func NewUserMessage(conversationID uint, content string, files []FileRef, modelID, reasoningEffort string, webSearch bool, timezone string) *Message {
	return &Message{
		PublicID:         newPublicID("msg"),
		ConversationID:   conversationID,
		Role:             RoleUser,
		Content:          content,
		Files:            files,
		ModelID:          modelID,
		ReasoningEffort:  reasoningEffort,
		WebSearchEnabled: webSearch,
		Timezone:         timezone,
		CreatedAt:        time.Now(),
	}
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
