package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/auth"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/requests"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/responses"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// ChatHandler exposes HTTP entrypoints for conversations and turns.
type ChatHandler struct {
	sequencer     *chat.Sequencer
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	citations     *fileindex.Service
	log           zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(
	sequencer *chat.Sequencer,
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	citations *fileindex.Service,
	log zerolog.Logger,
) *ChatHandler {
	return &ChatHandler{
		sequencer:     sequencer,
		conversations: conversations,
		messages:      messages,
		citations:     citations,
		log:           log.With().Str("handler", "chat").Logger(),
	}
}

// Submit handles POST /v1/chat
// @Summary Submit a user turn
// @Description Persists the user message and schedules the assistant turn. The reply streams into the conversation asynchronously.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body requests.SubmitMessageRequest true "Submit request"
// @Success 202 {object} responses.SubmitPayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Submit(c *gin.Context) {
	var req requests.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	files := make([]chat.FileRef, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, chat.FileRef{FileID: f.FileID, FileName: f.FileName})
	}

	userID := auth.UserID(c)
	conv, userMsg, err := h.sequencer.SubmitTurn(c.Request.Context(), chat.SubmitParams{
		UserID:               userID,
		ConversationPublicID: req.ConversationID,
		Text:                 req.Text,
		Files:                files,
		ModelID:              req.Model,
		ReasoningEffort:      req.ReasoningEffort,
		WebSearchEnabled:     req.WebSearchEnabled,
		Timezone:             req.Timezone,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to submit message")
		return
	}

	// The message now carries the files, so bind their citation provenance.
	// Failing here never fails the turn; the citation link just stays dead.
	for _, f := range files {
		if err := h.citations.AttachFirstUse(c.Request.Context(), f.FileID, conv.ID, userMsg.PublicID); err != nil {
			h.log.Warn().Err(err).Str("file_id", f.FileID).Msg("failed to attach file citation")
		}
	}

	c.JSON(http.StatusAccepted, responses.SubmitPayload{
		Conversation: responses.ConversationFromDomain(conv),
		Message:      responses.MessageFromDomain(userMsg),
	})
}

// List handles GET /v1/conversations
// @Summary List conversations
// @Tags Chat
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/conversations [get]
func (h *ChatHandler) List(c *gin.Context) {
	convs, err := h.conversations.ListByUserID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	payloads := make([]responses.ConversationPayload, 0, len(convs))
	for _, conv := range convs {
		payloads = append(payloads, responses.ConversationFromDomain(conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": payloads})
}

// Get handles GET /v1/conversations/:conversation_id
// @Summary Get a conversation with its messages
// @Tags Chat
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id} [get]
func (h *ChatHandler) Get(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListByConversationID(c.Request.Context(), conv.ID)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": responses.ConversationFromDomain(conv),
		"messages":     responses.MessagesFromDomain(msgs),
	})
}

// Delete handles DELETE /v1/conversations/:conversation_id
// @Summary Delete a conversation
// @Description Removes the conversation, its messages, and file citation entries first used in it.
// @Tags Chat
// @Param conversation_id path string true "Conversation ID"
// @Success 204
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id} [delete]
func (h *ChatHandler) Delete(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	if err := h.conversations.Delete(c.Request.Context(), conv.ID); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}
	if err := h.citations.PurgeConversation(c.Request.Context(), conv.ID); err != nil {
		h.log.Warn().Err(err).Uint("conversation_id", conv.ID).Msg("failed to purge file citations")
	}

	c.Status(http.StatusNoContent)
}

// ListMessages handles GET /v1/conversations/:conversation_id/messages
// @Summary List messages in insertion order
// @Tags Chat
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListByConversationID(c.Request.Context(), conv.ID)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": responses.MessagesFromDomain(msgs)})
}

// ResolveCitation handles GET /v1/conversations/:conversation_id/citations/:file_id
// @Summary Resolve a file citation to the message that introduced it
// @Description Returns a null citation when the file id is unknown or was first used outside this conversation.
// @Tags Chat
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param file_id path string true "Provider file ID"
// @Success 200 {object} responses.CitationResolutionPayload
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/citations/{file_id} [get]
func (h *ChatHandler) ResolveCitation(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	resolution, err := h.citations.ResolveForConversation(
		c.Request.Context(), conv.ID, c.Param("file_id"), auth.UserID(c))
	if err != nil {
		responses.HandleError(c, err, "failed to resolve citation")
		return
	}

	c.JSON(http.StatusOK, responses.CitationResolutionPayload{Citation: resolution})
}

// ownedConversation loads :conversation_id and enforces ownership. On failure
// it writes the error response and returns ok=false.
func (h *ChatHandler) ownedConversation(c *gin.Context) (*chat.Conversation, bool) {
	conv, err := h.conversations.FindByPublicID(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return nil, false
	}

	if conv.UserID != auth.UserID(c) {
		err := platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerHandler,
			platformerrors.ErrorTypeForbidden,
			"conversation belongs to another user",
			nil,
			"chat-conversation-forbidden",
		)
		responses.HandleError(c, err, "access denied")
		return nil, false
	}
	return conv, true
}
