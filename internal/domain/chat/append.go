package chat

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/metrics"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// Selections carries the per-turn request options recorded on the assistant
// message.
type Selections struct {
	ModelID          string
	ReasoningEffort  string
	WebSearchEnabled bool
	Timezone         string
}

// AppendEngine owns the lifecycle of one assistant message: creation as a
// typing placeholder, size-bounded incremental content growth, reasoning
// growth, and exactly-once finalization.
//
// Appends are applied synchronously relative to the provider stream's
// iteration, so readers observe a monotonically growing prefix of the final
// content. A message whose backing row vanished mid-stream (conversation
// deleted while generating) absorbs every further call as a logged no-op;
// streaming never crashes on that race.
type AppendEngine struct {
	messages      MessageRepository
	conversations ConversationRepository
	maxContentLen int
	log           zerolog.Logger
}

// NewAppendEngine wires dependencies. maxContentLen is the hard cap on
// assistant content; deltas past it are silently truncated.
func NewAppendEngine(messages MessageRepository, conversations ConversationRepository, maxContentLen int, log zerolog.Logger) *AppendEngine {
	return &AppendEngine{
		messages:      messages,
		conversations: conversations,
		maxContentLen: maxContentLen,
		log:           log.With().Str("component", "append-engine").Logger(),
	}
}

// Create inserts an empty assistant message with status typing. The row is
// visible to readers immediately, which is what drives the typing indicator.
func (e *AppendEngine) Create(ctx context.Context, conversationID uint, sel Selections) (*Message, error) {
	msg := &Message{
		PublicID:         newPublicID("msg"),
		ConversationID:   conversationID,
		Role:             RoleAssistant,
		Status:           StatusTyping,
		ModelID:          sel.ModelID,
		ReasoningEffort:  sel.ReasoningEffort,
		WebSearchEnabled: sel.WebSearchEnabled,
		Timezone:         sel.Timezone,
		CreatedAt:        time.Now(),
	}
	if err := e.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create assistant message: %w", err)
	}
	return msg, nil
}

// CreateError inserts a brand-new assistant message already in the error
// state. Used when a turn fails before the typing placeholder exists, so
// there is nothing to patch.
func (e *AppendEngine) CreateError(ctx context.Context, conversationID uint, errorDetail string, sel Selections) (*Message, error) {
	msg := &Message{
		PublicID:         newPublicID("msg"),
		ConversationID:   conversationID,
		Role:             RoleAssistant,
		Status:           StatusError,
		ErrorDetail:      &errorDetail,
		ModelID:          sel.ModelID,
		ReasoningEffort:  sel.ReasoningEffort,
		WebSearchEnabled: sel.WebSearchEnabled,
		Timezone:         sel.Timezone,
		CreatedAt:        time.Now(),
	}
	if err := e.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create error message: %w", err)
	}
	return msg, nil
}

// AppendContent concatenates delta onto the message content. If the result
// would exceed the cap, only the prefix of delta that fits is kept; once
// saturated, further appends are no-ops. Overflow never fails the stream.
func (e *AppendEngine) AppendContent(ctx context.Context, msg *Message, delta string) {
	if delta == "" {
		return
	}

	remaining := e.maxContentLen - len(msg.Content)
	if remaining <= 0 {
		return
	}
	if len(delta) > remaining {
		e.log.Warn().
			Str("message_id", msg.PublicID).
			Int("cap", e.maxContentLen).
			Msg("content cap reached, truncating delta")
		metrics.RecordContentTruncation()
		// Back the cut off to a rune boundary so the stored text stays
		// valid UTF-8 for the text column.
		for remaining > 0 && !utf8.RuneStart(delta[remaining]) {
			remaining--
		}
		delta = delta[:remaining]
		if delta == "" {
			return
		}
	}

	msg.Content += delta
	if err := e.messages.UpdateContent(ctx, msg.ID, msg.Content); err != nil {
		e.dropLostWrite(msg, "append content", err)
	}
}

// AppendReasoning concatenates delta onto the reasoning summary. No cap:
// reasoning summaries are provider-bounded already.
func (e *AppendEngine) AppendReasoning(ctx context.Context, msg *Message, delta string) {
	if delta == "" {
		return
	}
	msg.Reasoning += delta
	if err := e.messages.UpdateReasoning(ctx, msg.ID, msg.Reasoning); err != nil {
		e.dropLostWrite(msg, "append reasoning", err)
	}
}

// Complete finalizes the message as completed and bumps the owning
// conversation's activity timestamp. The bump happens here rather than on
// every delta to avoid write amplification.
func (e *AppendEngine) Complete(ctx context.Context, msg *Message, update CompletionUpdate) {
	if err := e.messages.Complete(ctx, msg.ID, update); err != nil {
		e.dropLostWrite(msg, "complete", err)
		return
	}

	msg.Status = StatusCompleted
	if update.ProviderResponseID != "" {
		msg.ProviderResponseID = &update.ProviderResponseID
	}
	if update.Reasoning != "" {
		msg.Reasoning = update.Reasoning
	}
	msg.Citations = update.Citations

	if err := e.conversations.TouchActivity(ctx, msg.ConversationID, time.Now()); err != nil {
		e.log.Warn().Err(err).Str("message_id", msg.PublicID).Msg("bump conversation activity failed")
	}
}

// Fail finalizes the message as error with a user-visible detail.
func (e *AppendEngine) Fail(ctx context.Context, msg *Message, errorDetail string) {
	if err := e.messages.Fail(ctx, msg.ID, errorDetail); err != nil {
		e.dropLostWrite(msg, "fail", err)
		return
	}
	msg.Status = StatusError
	msg.ErrorDetail = &errorDetail
}

func (e *AppendEngine) dropLostWrite(msg *Message, op string, err error) {
	if platformerrors.IsNotFound(err) {
		e.log.Warn().
			Str("message_id", msg.PublicID).
			Str("op", op).
			Msg("message row gone mid-stream, dropping write")
		return
	}
	e.log.Error().Err(err).
		Str("message_id", msg.PublicID).
		Str("op", op).
		Msg("message write failed")
}
