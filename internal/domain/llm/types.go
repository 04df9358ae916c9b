package llm

import "context"

// Provider is the contract for one upstream text-generation API.
type Provider interface {
	// Generate performs a blocking request/response call.
	Generate(reqCtx context.Context, req GenerateRequest) (*GenerateResult, error)
	// GenerateStream opens an incremental event stream for the same request.
	GenerateStream(reqCtx context.Context, req GenerateRequest) (Stream, error)
}

// FileService covers the provider's bulk file-ingestion and similarity-index
// surface. Only providers with file-search support implement it.
type FileService interface {
	// CreateSimilarityIndex lazily creates a provider-side index scoped to one
	// conversation and returns its opaque handle.
	CreateSimilarityIndex(ctx context.Context, name string) (string, error)
	// IngestFile uploads file content and attaches it to the index, returning
	// the provider-assigned file id used in later citations.
	IngestFile(ctx context.Context, indexID, fileName string, content []byte) (string, error)
}

// Stream abstracts an SSE or chunked response from a provider.
type Stream interface {
	Recv() (*StreamEvent, error)
	Close() error
}

// GenerateRequest carries everything one upstream call needs. The continuation
// token is the provider-side handle from the previous successful turn; it is
// empty on the first turn.
type GenerateRequest struct {
	Model             ModelInfo
	Input             string
	Instructions      string
	ContinuationToken string
	Tools             []Tool
	ReasoningEffort   string
}

// GenerateResult is the non-streaming payload, used for title generation.
type GenerateResult struct {
	ResponseID string
	Text       string
}

// ToolType identifies a provider-side tool.
type ToolType string

const (
	ToolWebSearch  ToolType = "web_search"
	ToolFileSearch ToolType = "file_search"
)

// Tool is one entry in the request tool set.
type Tool struct {
	Type ToolType
	// IndexID and MaxNumResults apply to file search only.
	IndexID       string
	MaxNumResults int
}

// EventType tags entries of the stream event union.
type EventType string

const (
	EventCreated        EventType = "created"
	EventContentDelta   EventType = "content_delta"
	EventReasoningDelta EventType = "reasoning_delta"
	EventReasoningDone  EventType = "reasoning_done"
	EventTextDone       EventType = "text_done"
	EventCompleted      EventType = "completed"
)

// StreamEvent is the closed union every transport payload is normalized into
// before anything downstream touches it. Which fields are set depends on Type:
// ResponseID on created/completed, Delta on the delta events and
// reasoning_done, Annotations on text_done/completed.
type StreamEvent struct {
	Type        EventType
	ResponseID  string
	Delta       string
	Annotations []Annotation
}

// AnnotationType tags citation-bearing annotations.
type AnnotationType string

const (
	AnnotationFileCitation AnnotationType = "file_citation"
	AnnotationURLCitation  AnnotationType = "url_citation"
)

// Annotation is a raw citation event as emitted by a provider, already
// stripped of transport-specific shape.
type Annotation struct {
	Type     AnnotationType
	FileID   string
	Filename string
	URL      string
	Title    string
}
