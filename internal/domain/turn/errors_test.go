package turn_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/turn"
)

func TestUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "Something went wrong while generating a response.",
		},
		{
			name: "missing credential",
			err:  fmt.Errorf("resolve provider: %w", llm.ErrMissingCredential),
			want: "No API key is configured for this model's provider.",
		},
		{
			name: "rejected key by status",
			err:  &llm.ProviderError{StatusCode: 401, Message: "Incorrect API key provided"},
			want: "The configured API key was rejected by the provider.",
		},
		{
			name: "rejected key by code",
			err:  &llm.ProviderError{StatusCode: 400, Code: "invalid_api_key"},
			want: "The configured API key was rejected by the provider.",
		},
		{
			name: "quota exhausted",
			err:  &llm.ProviderError{StatusCode: 429, Code: "insufficient_quota"},
			want: "The provider reports your usage quota is exhausted.",
		},
		{
			name: "rate limited",
			err:  &llm.ProviderError{StatusCode: 429, Message: "slow down"},
			want: "The provider is rate limiting requests. Try again in a moment.",
		},
		{
			name: "unsupported model",
			err:  &llm.ProviderError{StatusCode: 404, Code: "model_not_found"},
			want: "The selected model is not available.",
		},
		{
			name: "wrapped provider error still classified",
			err:  fmt.Errorf("stream transport: %w", &llm.ProviderError{StatusCode: 429}),
			want: "The provider is rate limiting requests. Try again in a moment.",
		},
		{
			name: "unclassified provider error surfaces its message",
			err:  &llm.ProviderError{StatusCode: 500, Message: "The server had an error"},
			want: "The server had an error",
		},
		{
			name: "unclassified provider error without message",
			err:  &llm.ProviderError{StatusCode: 500},
			want: "Something went wrong while generating a response.",
		},
		{
			name: "plain error surfaces its message",
			err:  errors.New("connection reset"),
			want: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := turn.UserFacing(tt.err); got != tt.want {
				t.Errorf("UserFacing() = %q, want %q", got, tt.want)
			}
		})
	}
}
