package llmprovider

import (
	"encoding/json"
	"strings"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
)

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type apiErrorEnvelope struct {
	Error *apiError `json:"error"`
}

// providerError converts an upstream failure body into a structured
// llm.ProviderError. Bodies that are not the standard error envelope are
// carried verbatim in the message.
func providerError(statusCode int, body []byte) error {
	pe := &llm.ProviderError{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		pe.Code = envelope.Error.Code
		if pe.Code == "" {
			pe.Code = envelope.Error.Type
		}
		pe.Message = envelope.Error.Message
		return pe
	}

	pe.Message = strings.TrimSpace(string(body))
	return pe
}
