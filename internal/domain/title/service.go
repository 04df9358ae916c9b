// Package title names conversations after their first exchange.
package title

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

const (
	maxTitleLength = 80

	titleInstructions = "Generate a short title (at most six words) summarizing the user's message. " +
		"Respond with the title only, no quotes, no trailing punctuation."
)

// ProviderResolver yields the upstream client for a provider kind.
type ProviderResolver interface {
	Provider(kind llm.ProviderKind) (llm.Provider, error)
}

// Service generates a display name for a conversation from its first user
// message. Naming is cosmetic; most failure modes log and drop rather than
// retry.
type Service struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	providers     ProviderResolver
	log           zerolog.Logger
}

// NewService wires dependencies.
func NewService(
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	providers ProviderResolver,
	log zerolog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		providers:     providers,
		log:           log.With().Str("component", "title-service").Logger(),
	}
}

// GenerateTitle names the conversation if it still carries the default name.
// A provider failure propagates so the job queue can retry; everything else
// is dropped.
func (s *Service) GenerateTitle(ctx context.Context, conversationID uint) error {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if platformerrors.IsNotFound(err) {
			s.log.Warn().Uint("conversation_id", conversationID).Msg("conversation gone, dropping title job")
			return nil
		}
		return fmt.Errorf("fetch conversation: %w", err)
	}
	if conv.Name != chat.DefaultConversationName {
		// Already renamed, by an earlier job or by the user.
		return nil
	}

	userMsg, err := s.messages.LatestUserMessage(ctx, conv.ID)
	if err != nil {
		if platformerrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("fetch first message: %w", err)
	}

	model := llm.DefaultModel()
	provider, err := s.providers.Provider(model.Provider)
	if err != nil {
		s.log.Warn().Err(err).Msg("no provider for title generation")
		return nil
	}

	result, err := provider.Generate(ctx, llm.GenerateRequest{
		Model:        model,
		Input:        userMsg.Content,
		Instructions: titleInstructions,
	})
	if err != nil {
		return fmt.Errorf("generate title: %w", err)
	}

	name := sanitizeTitle(result.Text)
	if name == "" {
		s.log.Warn().Str("conversation_id", conv.PublicID).Msg("empty title from provider, keeping default name")
		return nil
	}

	if err := s.conversations.UpdateName(ctx, conv.ID, name); err != nil {
		return fmt.Errorf("persist title: %w", err)
	}
	s.log.Info().Str("conversation_id", conv.PublicID).Str("name", name).Msg("conversation titled")
	return nil
}

// sanitizeTitle collapses the model output to a single trimmed line and caps
// its length at a rune boundary.
func sanitizeTitle(raw string) string {
	name := strings.TrimSpace(raw)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.Trim(name, `"'`)
	name = strings.TrimRight(name, ".")
	runes := []rune(name)
	if len(runes) > maxTitleLength {
		name = string(runes[:maxTitleLength])
	}
	return strings.TrimSpace(name)
}
