package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// TurnScheduler runs a unit of work after a delay, at least once, outside the
// caller's transaction. The sequencer schedules exactly one turn job per user
// submission; the turn job is the only code path that creates typing
// messages, which is what makes the one-typing invariant structural.
type TurnScheduler interface {
	ScheduleTurn(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error
	ScheduleTitle(ctx context.Context, conversationID uint, delay time.Duration) error
}

// DefaultConversationName is the placeholder shown until title generation runs.
const DefaultConversationName = "New Chat"

// SubmitParams is one user submission.
type SubmitParams struct {
	UserID               string
	ConversationPublicID string // empty starts a new conversation
	Text                 string
	Files                []FileRef
	ModelID              string
	ReasoningEffort      string
	WebSearchEnabled     bool
	Timezone             string
}

// Sequencer enforces the conversation-level ordering rules: at most one
// active generation per conversation, first-turn detection for title
// generation, and activity-time bookkeeping on user inserts.
type Sequencer struct {
	conversations ConversationRepository
	messages      MessageRepository
	scheduler     TurnScheduler
	titleDelay    time.Duration
	log           zerolog.Logger
}

// NewSequencer wires dependencies.
func NewSequencer(conversations ConversationRepository, messages MessageRepository, scheduler TurnScheduler, titleDelay time.Duration, log zerolog.Logger) *Sequencer {
	return &Sequencer{
		conversations: conversations,
		messages:      messages,
		scheduler:     scheduler,
		titleDelay:    titleDelay,
		log:           log.With().Str("component", "sequencer").Logger(),
	}
}

// IsFirstTurn reports whether no message exists yet for the conversation.
func (s *Sequencer) IsFirstTurn(ctx context.Context, conversationID uint) (bool, error) {
	count, err := s.messages.CountByConversationID(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("count messages: %w", err)
	}
	return count == 0, nil
}

// SubmitTurn records the user half of a turn and schedules the generation
// job. It refuses to start while another message in the conversation is still
// typing; reaching that branch means a client raced its own submission, not a
// recoverable state.
func (s *Sequencer) SubmitTurn(ctx context.Context, params SubmitParams) (*Conversation, *Message, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"submission text is empty",
			nil,
			"submit-empty-text",
		)
	}

	conv, err := s.resolveConversation(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	typing, err := s.messages.HasTyping(ctx, conv.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check typing state: %w", err)
	}
	if typing {
		return nil, nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict,
			"a generation is already in progress for this conversation",
			nil,
			"submit-turn-typing-conflict",
		)
	}

	firstTurn, err := s.IsFirstTurn(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}

	userMsg := NewUserMessage(conv.ID, strings.TrimSpace(params.Text), params.Files,
		params.ModelID, params.ReasoningEffort, params.WebSearchEnabled, params.Timezone)
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("create user message: %w", err)
	}

	now := time.Now()
	if err := s.conversations.TouchActivity(ctx, conv.ID, now); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("bump activity on user message failed")
	}
	conv.LastActivityAt = now

	if err := s.scheduler.ScheduleTurn(ctx, conv.ID, userMsg.ID, 0); err != nil {
		return nil, nil, fmt.Errorf("schedule turn: %w", err)
	}

	if firstTurn {
		if err := s.scheduler.ScheduleTitle(ctx, conv.ID, s.titleDelay); err != nil {
			// Title generation is cosmetic; the turn proceeds without it.
			s.log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("schedule title job failed")
		}
	}

	return conv, userMsg, nil
}

func (s *Sequencer) resolveConversation(ctx context.Context, params SubmitParams) (*Conversation, error) {
	if strings.TrimSpace(params.ConversationPublicID) == "" {
		conv := NewConversation(params.UserID, DefaultConversationName)
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		return conv, nil
	}

	conv, err := s.conversations.FindByPublicID(ctx, params.ConversationPublicID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}
	if conv.UserID != params.UserID {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeForbidden,
			"conversation belongs to another user",
			nil,
			"submit-turn-wrong-owner",
		)
	}
	return conv, nil
}
