package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/citation"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/metrics"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// ProviderResolver yields the upstream client for a provider kind. Resolution
// happens once per turn, when the call is constructed; nothing downstream of
// it branches on the provider again.
type ProviderResolver interface {
	Provider(kind llm.ProviderKind) (llm.Provider, error)
}

// Orchestrator drives one generation turn: preparing → streaming →
// finalizing-{success,error}. One invocation equals one upstream call.
type Orchestrator struct {
	engine        *chat.AppendEngine
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	providers     ProviderResolver
	log           zerolog.Logger
}

// NewOrchestrator wires dependencies.
func NewOrchestrator(
	engine *chat.AppendEngine,
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	providers ProviderResolver,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:        engine,
		conversations: conversations,
		messages:      messages,
		providers:     providers,
		log:           log.With().Str("component", "turn-orchestrator").Logger(),
	}
}

type preparedTurn struct {
	conv     *chat.Conversation
	model    llm.ModelInfo
	sel      chat.Selections
	request  llm.GenerateRequest
	provider llm.Provider
}

// RunTurn executes the turn for the conversation's most recent user message.
// User-visible failures finalize the assistant message as error and return
// nil; only infrastructure failures that produced no message at all propagate
// so the scheduler can retry.
func (o *Orchestrator) RunTurn(ctx context.Context, conversationID uint) error {
	started := time.Now()

	prep, err := o.prepare(ctx, conversationID)
	if err != nil {
		if platformerrors.IsNotFound(err) {
			// Conversation deleted between scheduling and execution; the
			// turn has nothing left to produce.
			o.log.Warn().Uint("conversation_id", conversationID).Msg("conversation gone, dropping turn")
			return nil
		}
		if errors.Is(err, ErrGenerationInFlight) {
			o.log.Info().Uint("conversation_id", conversationID).Msg("generation in flight, retrying turn later")
			return err
		}
		// Nothing to patch: the placeholder does not exist yet, so a fresh
		// error message is created instead.
		o.log.Warn().Err(err).Uint("conversation_id", conversationID).Msg("turn failed before placeholder")
		sel := chat.Selections{ModelID: llm.DefaultModelID}
		if prep != nil {
			sel = prep.sel
		}
		if _, cerr := o.engine.CreateError(ctx, conversationID, UserFacing(err), sel); cerr != nil {
			return fmt.Errorf("turn preparation failed and error message could not be created: %w", cerr)
		}
		metrics.RecordTurn(providerLabel(prep), "error", time.Since(started).Seconds())
		return nil
	}

	msg, err := o.engine.Create(ctx, conversationID, prep.sel)
	if err != nil {
		return fmt.Errorf("create placeholder: %w", err)
	}

	acc := citation.NewAccumulator()
	responseID, err := o.stream(ctx, prep, msg, acc)
	if err != nil {
		o.finalizeError(ctx, msg, err)
		metrics.RecordTurn(string(prep.model.Provider), "error", time.Since(started).Seconds())
		return nil
	}

	if msg.Content == "" {
		// A clean stream end with zero content is not a valid success.
		o.log.Warn().Str("message_id", msg.PublicID).Msg("stream completed with empty content")
		o.engine.Fail(ctx, msg, msgEmptyOutput)
		metrics.RecordTurn(string(prep.model.Provider), "empty", time.Since(started).Seconds())
		return nil
	}

	o.engine.Complete(ctx, msg, chat.CompletionUpdate{
		ProviderResponseID: responseID,
		Citations:          acc.Citations(),
	})

	// The continuation token is persisted here and only here: the terminal
	// event of a successfully completed generation.
	if responseID != "" {
		if err := o.conversations.SetContinuationToken(ctx, prep.conv.ID, responseID); err != nil {
			o.log.Warn().Err(err).Str("conversation_id", prep.conv.PublicID).Msg("persist continuation token failed")
		}
	}

	metrics.RecordTurn(string(prep.model.Provider), "completed", time.Since(started).Seconds())
	return nil
}

func (o *Orchestrator) prepare(ctx context.Context, conversationID uint) (*preparedTurn, error) {
	conv, err := o.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}

	// The sequencer's check only sees committed rows; two rapid submissions
	// can both pass it before either turn runs. Re-check here so a second
	// job never opens a stream while a typing message exists.
	typing, err := o.messages.HasTyping(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("check in-flight generation: %w", err)
	}
	if typing {
		return nil, ErrGenerationInFlight
	}

	userMsg, err := o.messages.LatestUserMessage(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch turn input: %w", err)
	}

	model, ok := llm.LookupModel(userMsg.ModelID)
	if !ok {
		// A stale model id stored on a past message never aborts the turn.
		o.log.Warn().Str("model", userMsg.ModelID).Msg("unsupported model id, falling back to default")
		model = llm.DefaultModel()
	}

	sel := chat.Selections{
		ModelID:          model.ID,
		ReasoningEffort:  userMsg.ReasoningEffort,
		WebSearchEnabled: userMsg.WebSearchEnabled,
		Timezone:         userMsg.Timezone,
	}

	provider, err := o.providers.Provider(model.Provider)
	if err != nil {
		prep := &preparedTurn{conv: conv, model: model, sel: sel}
		return prep, fmt.Errorf("resolve provider: %w", err)
	}

	req := llm.GenerateRequest{
		Model:        model,
		Input:        userMsg.Content,
		Instructions: renderInstructions(model, userMsg.Timezone, time.Now()),
		Tools:        computeTools(conv, userMsg, model),
	}
	if conv.ContinuationToken != nil {
		req.ContinuationToken = *conv.ContinuationToken
	}
	if model.Capabilities.Thinking && userMsg.ReasoningEffort != "" {
		req.ReasoningEffort = userMsg.ReasoningEffort
	}

	return &preparedTurn{
		conv:     conv,
		model:    model,
		sel:      sel,
		request:  req,
		provider: provider,
	}, nil
}

// stream consumes the provider event stream, delegating each event to the
// append engine and citation accumulator. Errors from handling a single
// event are absorbed; only transport errors abort the loop.
func (o *Orchestrator) stream(ctx context.Context, prep *preparedTurn, msg *chat.Message, acc *citation.Accumulator) (string, error) {
	stream, err := prep.provider.GenerateStream(ctx, prep.request)
	if err != nil {
		return "", fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var responseID string
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("stream transport: %w", err)
		}
		o.handleEvent(ctx, msg, acc, event, &responseID)
	}
	return responseID, nil
}

func (o *Orchestrator) handleEvent(ctx context.Context, msg *chat.Message, acc *citation.Accumulator, event *llm.StreamEvent, responseID *string) {
	// One malformed event must not abort an otherwise healthy generation.
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("message_id", msg.PublicID).
				Str("event_type", string(event.Type)).
				Interface("panic", r).
				Msg("event handling failed, continuing stream")
		}
	}()

	metrics.RecordStreamEvent(string(event.Type))

	switch event.Type {
	case llm.EventCreated:
		if event.ResponseID != "" {
			*responseID = event.ResponseID
		}
	case llm.EventContentDelta:
		o.engine.AppendContent(ctx, msg, event.Delta)
	case llm.EventReasoningDelta, llm.EventReasoningDone:
		o.engine.AppendReasoning(ctx, msg, event.Delta)
	case llm.EventTextDone:
		acc.AddAll(event.Annotations)
	case llm.EventCompleted:
		if event.ResponseID != "" {
			*responseID = event.ResponseID
		}
		// Duplicates of mid-stream annotations drop out on the dedup key;
		// first-seen entries keep their position and name.
		acc.AddAll(event.Annotations)
	default:
		o.log.Debug().Str("event_type", string(event.Type)).Msg("ignoring unknown stream event")
	}
}

func (o *Orchestrator) finalizeError(ctx context.Context, msg *chat.Message, cause error) {
	o.log.Warn().Err(cause).Str("message_id", msg.PublicID).Msg("turn failed while streaming")
	o.engine.Fail(ctx, msg, UserFacing(cause))
}

// computeTools builds the tool set: web search iff the request asked for it,
// file search iff the conversation owns a similarity index, both gated on
// model capability.
func computeTools(conv *chat.Conversation, userMsg *chat.Message, model llm.ModelInfo) []llm.Tool {
	var tools []llm.Tool
	if userMsg.WebSearchEnabled && model.Capabilities.WebSearch {
		tools = append(tools, llm.Tool{Type: llm.ToolWebSearch})
	}
	if conv.SearchIndexID != nil && model.Capabilities.FileSearch {
		tools = append(tools, llm.Tool{
			Type:          llm.ToolFileSearch,
			IndexID:       *conv.SearchIndexID,
			MaxNumResults: llm.MaxFileSearchResults,
		})
	}
	return tools
}

func renderInstructions(model llm.ModelInfo, timezone string, now time.Time) string {
	loc := time.UTC
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			loc = parsed
		}
	}
	localTime := now.In(loc).Format("Monday, January 2, 2006 at 3:04 PM (UTC-07:00)")
	return fmt.Sprintf(
		"You are %s, a helpful assistant. Answer concisely and cite uploaded files or web results when you rely on them. The user's current local time is %s.",
		model.DisplayName, localTime,
	)
}

func providerLabel(prep *preparedTurn) string {
	if prep == nil {
		return "unknown"
	}
	return string(prep.model.Provider)
}
