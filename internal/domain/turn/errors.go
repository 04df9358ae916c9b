package turn

import (
	"errors"
	"strings"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
)

// ErrGenerationInFlight reports that the conversation already has a typing
// message. The turn job propagates it so the scheduler retries after the
// in-flight generation finalizes.
var ErrGenerationInFlight = errors.New("conversation has a generation in flight")

// Fixed user-facing strings for the known provider failure categories.
// Anything unclassified falls back to the raw message, or the generic string
// when the raw message is unusable.
const (
	msgInvalidCredential = "The configured API key was rejected by the provider."
	msgMissingCredential = "No API key is configured for this model's provider."
	msgQuotaExceeded     = "The provider reports your usage quota is exhausted."
	msgRateLimited       = "The provider is rate limiting requests. Try again in a moment."
	msgUnsupportedModel  = "The selected model is not available."
	msgEmptyOutput       = "The model returned an empty response. Try again."
	msgGeneric           = "Something went wrong while generating a response."
)

// UserFacing converts a turn failure into a string safe to surface on the
// message's error detail.
func UserFacing(err error) string {
	if err == nil {
		return msgGeneric
	}
	if errors.Is(err, llm.ErrMissingCredential) {
		return msgMissingCredential
	}

	if pe, ok := llm.AsProviderError(err); ok {
		switch {
		case pe.StatusCode == 401 || pe.Code == "invalid_api_key":
			return msgInvalidCredential
		case pe.StatusCode == 402 || pe.Code == "insufficient_quota":
			return msgQuotaExceeded
		case pe.StatusCode == 429:
			return msgRateLimited
		case pe.Code == "model_not_found" || pe.Code == "unsupported_model":
			return msgUnsupportedModel
		}
		if msg := strings.TrimSpace(pe.Message); msg != "" {
			return msg
		}
		return msgGeneric
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return msgGeneric
}
