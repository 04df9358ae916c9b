package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/auth"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/responses"
)

// ProviderKeyHeader lets a request supply its own upstream API key instead of
// the server-configured one.
const ProviderKeyHeader = "X-Provider-Api-Key"

// FileHandler exposes the upload endpoint feeding the per-conversation
// similarity index.
type FileHandler struct {
	conversations chat.ConversationRepository
	files         llm.FileService
	index         *fileindex.Service
	log           zerolog.Logger
}

// NewFileHandler constructs the handler.
func NewFileHandler(
	conversations chat.ConversationRepository,
	files llm.FileService,
	index *fileindex.Service,
	log zerolog.Logger,
) *FileHandler {
	return &FileHandler{
		conversations: conversations,
		files:         files,
		index:         index,
		log:           log.With().Str("handler", "file").Logger(),
	}
}

// Upload handles POST /v1/conversations/:conversation_id/files
// @Summary Upload a file for file-search citations
// @Description Creates the conversation's similarity index on first upload, ingests the file, and records it in the citation index.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param file formData file true "File content"
// @Success 200 {object} responses.FileUploadPayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	conv, err := h.conversations.FindByPublicID(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}
	userID := auth.UserID(c)
	if conv.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "conversation belongs to another user"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	ctx := c.Request.Context()
	if key := strings.TrimSpace(c.GetHeader(ProviderKeyHeader)); key != "" {
		ctx = llm.ContextWithCredential(ctx, key)
	}

	indexID, err := h.ensureIndex(ctx, conv)
	if err != nil {
		responses.HandleError(c, err, "failed to create similarity index")
		return
	}

	fileID, err := h.files.IngestFile(ctx, indexID, fileHeader.Filename, content)
	if err != nil {
		responses.HandleError(c, err, "failed to ingest file")
		return
	}

	entry := fileindex.Entry{
		FileID:         fileID,
		FileName:       fileHeader.Filename,
		UploaderID:     userID,
		BlobRef:        indexID,
		ConversationID: &conv.ID,
		Size:           fileHeader.Size,
		MimeType:       fileHeader.Header.Get("Content-Type"),
	}
	if err := h.index.Record(ctx, entry); err != nil {
		h.log.Warn().Err(err).Str("file_id", fileID).Msg("failed to record file citation entry")
	}

	c.JSON(http.StatusOK, responses.FileUploadPayload{
		FileID:   fileID,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
	})
}

// ensureIndex returns the conversation's similarity index handle, creating it
// on first upload.
func (h *FileHandler) ensureIndex(ctx context.Context, conv *chat.Conversation) (string, error) {
	if conv.SearchIndexID != nil && *conv.SearchIndexID != "" {
		return *conv.SearchIndexID, nil
	}

	indexID, err := h.files.CreateSimilarityIndex(ctx, conv.PublicID)
	if err != nil {
		return "", err
	}
	if err := h.conversations.SetSearchIndexID(ctx, conv.ID, indexID); err != nil {
		return "", err
	}
	conv.SearchIndexID = &indexID
	return indexID, nil
}
