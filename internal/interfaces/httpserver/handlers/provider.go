package handlers

import (
	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat  *ChatHandler
	File  *FileHandler
	Model *ModelHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	sequencer *chat.Sequencer,
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	citations *fileindex.Service,
	files llm.FileService,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:  NewChatHandler(sequencer, conversations, messages, citations, log),
		File:  NewFileHandler(conversations, files, citations, log),
		Model: NewModelHandler(),
	}
}
