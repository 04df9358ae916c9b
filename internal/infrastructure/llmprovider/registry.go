package llmprovider

import (
	"fmt"
	"time"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
)

// Registry maps a provider kind to its client. Clients are constructed once;
// the per-call credential still comes from the request context, so a missing
// configured key only fails at call time if the context carries nothing
// either.
type Registry struct {
	openai     *OpenAIClient
	openrouter *OpenRouterClient
}

// Config carries the upstream endpoints and fallback keys.
type Config struct {
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	StreamTimeout     time.Duration
}

// NewRegistry builds the provider registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		openai:     NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.StreamTimeout),
		openrouter: NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.StreamTimeout),
	}
}

// Provider returns the client for the given kind.
func (r *Registry) Provider(kind llm.ProviderKind) (llm.Provider, error) {
	switch kind {
	case llm.ProviderOpenAI:
		return r.openai, nil
	case llm.ProviderOpenRouter:
		return r.openrouter, nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
}

// FileService returns the file ingestion surface. Only the OpenAI-style
// provider supports vector stores.
func (r *Registry) FileService() llm.FileService {
	return r.openai
}
