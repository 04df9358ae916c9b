package llm

// ProviderKind selects which upstream client a model is served by. The turn
// orchestrator branches on it exactly once, when the upstream call is built.
type ProviderKind string

const (
	ProviderOpenAI     ProviderKind = "openai"
	ProviderOpenRouter ProviderKind = "openrouter"
)

// Capabilities flags what a model supports. Tools and reasoning config are
// only sent upstream when the corresponding flag is set.
type Capabilities struct {
	Thinking   bool
	WebSearch  bool
	FileSearch bool
}

// ModelInfo describes one supported model.
type ModelInfo struct {
	ID           string
	DisplayName  string
	Provider     ProviderKind
	Capabilities Capabilities
}

// DefaultModelID is used when a stored model id is no longer supported.
const DefaultModelID = "gpt-4o-mini"

// MaxFileSearchResults bounds the file-search tool.
const MaxFileSearchResults = 10

var supportedModels = []ModelInfo{
	{
		ID:           "gpt-4o-mini",
		DisplayName:  "GPT-4o mini",
		Provider:     ProviderOpenAI,
		Capabilities: Capabilities{WebSearch: true, FileSearch: true},
	},
	{
		ID:           "gpt-4o",
		DisplayName:  "GPT-4o",
		Provider:     ProviderOpenAI,
		Capabilities: Capabilities{WebSearch: true, FileSearch: true},
	},
	{
		ID:           "o4-mini",
		DisplayName:  "o4-mini",
		Provider:     ProviderOpenAI,
		Capabilities: Capabilities{Thinking: true, WebSearch: true, FileSearch: true},
	},
	{
		ID:           "deepseek/deepseek-chat-v3-0324:free",
		DisplayName:  "DeepSeek V3",
		Provider:     ProviderOpenRouter,
		Capabilities: Capabilities{WebSearch: true},
	},
	{
		ID:           "deepseek/deepseek-r1:free",
		DisplayName:  "DeepSeek R1",
		Provider:     ProviderOpenRouter,
		Capabilities: Capabilities{Thinking: true, WebSearch: true},
	},
}

// LookupModel returns the registry entry for id.
func LookupModel(id string) (ModelInfo, bool) {
	for _, m := range supportedModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// DefaultModel returns the fallback model.
func DefaultModel() ModelInfo {
	m, _ := LookupModel(DefaultModelID)
	return m
}

// SupportedModels returns the registry for listings.
func SupportedModels() []ModelInfo {
	out := make([]ModelInfo, len(supportedModels))
	copy(out, supportedModels)
	return out
}
