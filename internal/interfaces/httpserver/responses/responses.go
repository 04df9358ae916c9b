package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code,omitempty"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		errResp := ErrorResponse{
			Code:          domainErr.UUID,
			Error:         message,
			Message:       domainErr.Message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.RequestID,
		}
		reqCtx.AbortWithStatusJSON(domainErr.HTTPStatus(), errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// ConversationPayload is the client view of a conversation.
type ConversationPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LastActivityAt int64  `json:"last_activity_at"`
	CreatedAt      int64  `json:"created_at"`
}

// ConversationFromDomain maps a domain conversation to its payload.
func ConversationFromDomain(conv *chat.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:             conv.PublicID,
		Name:           conv.Name,
		LastActivityAt: conv.LastActivityAt.Unix(),
		CreatedAt:      conv.CreatedAt.Unix(),
	}
}

// CitationPayload mirrors one accumulated citation on an assistant message.
type CitationPayload struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
}

// MessagePayload is the client view of a single message.
type MessagePayload struct {
	ID               string            `json:"id"`
	Role             string            `json:"role"`
	Content          string            `json:"content"`
	Status           string            `json:"status,omitempty"`
	Files            []chat.FileRef    `json:"files,omitempty"`
	Reasoning        string            `json:"reasoning,omitempty"`
	Citations        []CitationPayload `json:"citations,omitempty"`
	ErrorDetail      *string           `json:"error_detail,omitempty"`
	Model            string            `json:"model,omitempty"`
	ReasoningEffort  string            `json:"reasoning_effort,omitempty"`
	WebSearchEnabled bool              `json:"web_search_enabled"`
	CreatedAt        int64             `json:"created_at"`
}

// MessageFromDomain maps a domain message to its payload.
func MessageFromDomain(msg *chat.Message) MessagePayload {
	payload := MessagePayload{
		ID:               msg.PublicID,
		Role:             string(msg.Role),
		Content:          msg.Content,
		Status:           string(msg.Status),
		Files:            msg.Files,
		Reasoning:        msg.Reasoning,
		ErrorDetail:      msg.ErrorDetail,
		Model:            msg.ModelID,
		ReasoningEffort:  msg.ReasoningEffort,
		WebSearchEnabled: msg.WebSearchEnabled,
		CreatedAt:        msg.CreatedAt.Unix(),
	}
	for _, cit := range msg.Citations {
		payload.Citations = append(payload.Citations, CitationPayload{
			Type:     string(cit.Type),
			FileID:   cit.FileID,
			Filename: cit.FileName,
			URL:      cit.URL,
			Title:    cit.Title,
		})
	}
	return payload
}

// MessagesFromDomain maps a message slice preserving order.
func MessagesFromDomain(msgs []*chat.Message) []MessagePayload {
	payloads := make([]MessagePayload, 0, len(msgs))
	for _, msg := range msgs {
		payloads = append(payloads, MessageFromDomain(msg))
	}
	return payloads
}

// SubmitPayload acknowledges an accepted turn. The assistant reply arrives
// asynchronously and is observed by polling the conversation's messages.
type SubmitPayload struct {
	Conversation ConversationPayload `json:"conversation"`
	Message      MessagePayload      `json:"message"`
}

// ModelPayload describes one selectable model.
type ModelPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider"`
	Thinking    bool   `json:"thinking"`
	WebSearch   bool   `json:"web_search"`
	FileSearch  bool   `json:"file_search"`
}

// ModelsFromDomain maps the supported model registry.
func ModelsFromDomain(models []llm.ModelInfo) []ModelPayload {
	payloads := make([]ModelPayload, 0, len(models))
	for _, m := range models {
		payloads = append(payloads, ModelPayload{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Provider:    string(m.Provider),
			Thinking:    m.Capabilities.Thinking,
			WebSearch:   m.Capabilities.WebSearch,
			FileSearch:  m.Capabilities.FileSearch,
		})
	}
	return payloads
}

// FileUploadPayload acknowledges an ingested file.
type FileUploadPayload struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// CitationResolutionPayload wraps a scoped citation lookup. Citation is null
// when the file id does not resolve within the requested conversation.
type CitationResolutionPayload struct {
	Citation *fileindex.Resolution `json:"citation"`
}
