package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any upstream call is attempted when
// no API key is configured for the model's provider.
var ErrMissingCredential = errors.New("missing provider credential")

// ProviderError is a structured upstream API failure, built at the transport
// boundary so callers can classify without parsing provider-specific bodies.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}

// AsProviderError unwraps err into a ProviderError if one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
