// Package llmprovider contains the upstream text-generation clients. Each
// client normalizes its wire format into the llm.StreamEvent union at the
// transport boundary; nothing past this package parses provider payloads.
package llmprovider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
)

// OpenAIClient talks to an OpenAI-style Responses API. It also carries the
// provider's file and vector store surface, which backs file search.
type OpenAIClient struct {
	httpClient    *resty.Client
	baseURL       string
	apiKey        string
	streamTimeout time.Duration
}

// NewOpenAIClient creates a Resty-backed client. apiKey is the configured
// fallback; a per-call credential in the context takes precedence.
func NewOpenAIClient(baseURL, apiKey string, streamTimeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(75 * time.Second),
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		streamTimeout: streamTimeout,
	}
}

var (
	_ llm.Provider    = (*OpenAIClient)(nil)
	_ llm.FileService = (*OpenAIClient)(nil)
)

func (c *OpenAIClient) credential(ctx context.Context) (string, error) {
	if key := llm.CredentialFromContext(ctx); key != "" {
		return key, nil
	}
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return "", llm.ErrMissingCredential
}

type responsesTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`
}

type reasoningConfig struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary,omitempty"`
}

type responsesRequest struct {
	Model              string           `json:"model"`
	Input              string           `json:"input"`
	Instructions       string           `json:"instructions,omitempty"`
	PreviousResponseID string           `json:"previous_response_id,omitempty"`
	Stream             bool             `json:"stream,omitempty"`
	Tools              []responsesTool  `json:"tools,omitempty"`
	Reasoning          *reasoningConfig `json:"reasoning,omitempty"`
}

type responsesAnnotation struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
}

type responsesContent struct {
	Type        string                `json:"type"`
	Text        string                `json:"text"`
	Annotations []responsesAnnotation `json:"annotations,omitempty"`
}

type responsesOutputItem struct {
	Type    string             `json:"type"`
	Content []responsesContent `json:"content"`
}

type responsesResponse struct {
	ID     string                `json:"id"`
	Output []responsesOutputItem `json:"output"`
	Error  *apiError             `json:"error,omitempty"`
}

func buildResponsesRequest(req llm.GenerateRequest, stream bool) responsesRequest {
	out := responsesRequest{
		Model:              req.Model.ID,
		Input:              req.Input,
		Instructions:       req.Instructions,
		PreviousResponseID: req.ContinuationToken,
		Stream:             stream,
	}
	for _, tool := range req.Tools {
		switch tool.Type {
		case llm.ToolWebSearch:
			out.Tools = append(out.Tools, responsesTool{Type: "web_search"})
		case llm.ToolFileSearch:
			out.Tools = append(out.Tools, responsesTool{
				Type:           "file_search",
				VectorStoreIDs: []string{tool.IndexID},
				MaxNumResults:  tool.MaxNumResults,
			})
		}
	}
	if req.ReasoningEffort != "" {
		out.Reasoning = &reasoningConfig{Effort: req.ReasoningEffort, Summary: "auto"}
	}
	return out
}

// Generate performs a blocking call against /v1/responses.
func (c *OpenAIClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	var result responsesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(buildResponsesRequest(req, false)).
		SetResult(&result).
		Post("/v1/responses")
	if err != nil {
		return nil, fmt.Errorf("responses call: %w", err)
	}
	if resp.IsError() {
		return nil, providerError(resp.StatusCode(), resp.Body())
	}

	var text strings.Builder
	for _, item := range result.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				text.WriteString(content.Text)
			}
		}
	}

	return &llm.GenerateResult{ResponseID: result.ID, Text: text.String()}, nil
}

// GenerateStream opens an SSE stream against /v1/responses.
func (c *OpenAIClient) GenerateStream(ctx context.Context, req llm.GenerateRequest) (llm.Stream, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildResponsesRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	httpClient := &http.Client{Timeout: c.streamTimeout}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, providerError(resp.StatusCode, raw)
	}

	return &responsesStream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

// responsesStream normalizes Responses API SSE frames into stream events.
type responsesStream struct {
	resp   *http.Response
	reader *bufio.Reader
}

type responsesStreamPayload struct {
	Type     string `json:"type"`
	Response *struct {
		ID    string    `json:"id"`
		Error *apiError `json:"error,omitempty"`
	} `json:"response,omitempty"`
	Delta       string                `json:"delta,omitempty"`
	Annotation  *responsesAnnotation  `json:"annotation,omitempty"`
	Annotations []responsesAnnotation `json:"annotations,omitempty"`
}

func (s *responsesStream) Recv() (*llm.StreamEvent, error) {
	for {
		frame, err := readFrame(s.reader)
		if err != nil {
			return nil, err
		}

		var payload responsesStreamPayload
		if err := json.Unmarshal([]byte(frame.data), &payload); err != nil {
			// Malformed frames are dropped, not fatal.
			continue
		}
		if payload.Type == "" {
			payload.Type = frame.event
		}

		switch payload.Type {
		case "response.created":
			event := &llm.StreamEvent{Type: llm.EventCreated}
			if payload.Response != nil {
				event.ResponseID = payload.Response.ID
			}
			return event, nil

		case "response.output_text.delta":
			return &llm.StreamEvent{Type: llm.EventContentDelta, Delta: payload.Delta}, nil

		case "response.reasoning_summary_text.delta":
			return &llm.StreamEvent{Type: llm.EventReasoningDelta, Delta: payload.Delta}, nil

		case "response.reasoning_summary_text.done":
			return &llm.StreamEvent{Type: llm.EventReasoningDone}, nil

		case "response.output_text.annotation.added":
			if payload.Annotation == nil {
				continue
			}
			return &llm.StreamEvent{
				Type:        llm.EventTextDone,
				Annotations: convertAnnotations([]responsesAnnotation{*payload.Annotation}),
			}, nil

		case "response.output_text.done":
			return &llm.StreamEvent{
				Type:        llm.EventTextDone,
				Annotations: convertAnnotations(payload.Annotations),
			}, nil

		case "response.completed":
			event := &llm.StreamEvent{Type: llm.EventCompleted}
			if payload.Response != nil {
				event.ResponseID = payload.Response.ID
			}
			return event, nil

		case "response.failed", "error":
			pe := &llm.ProviderError{StatusCode: http.StatusOK, Message: "generation failed"}
			if payload.Response != nil && payload.Response.Error != nil {
				pe.Code = payload.Response.Error.Code
				pe.Message = payload.Response.Error.Message
			}
			return nil, pe

		default:
			// Lifecycle frames with no bearing on the assembled message.
			continue
		}
	}
}

func (s *responsesStream) Close() error {
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}

func convertAnnotations(raw []responsesAnnotation) []llm.Annotation {
	if len(raw) == 0 {
		return nil
	}
	out := make([]llm.Annotation, 0, len(raw))
	for _, a := range raw {
		switch a.Type {
		case "file_citation":
			out = append(out, llm.Annotation{
				Type:     llm.AnnotationFileCitation,
				FileID:   a.FileID,
				Filename: a.Filename,
			})
		case "url_citation":
			out = append(out, llm.Annotation{
				Type:  llm.AnnotationURLCitation,
				URL:   a.URL,
				Title: a.Title,
			})
		}
	}
	return out
}

// CreateSimilarityIndex creates a vector store scoped to one conversation.
func (c *OpenAIClient) CreateSimilarityIndex(ctx context.Context, name string) (string, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(map[string]string{"name": name}).
		SetResult(&result).
		Post("/v1/vector_stores")
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	if resp.IsError() {
		return "", providerError(resp.StatusCode(), resp.Body())
	}
	return result.ID, nil
}

// IngestFile uploads the file and attaches it to the index. The returned
// provider-assigned file id is what later citations point at.
func (c *OpenAIClient) IngestFile(ctx context.Context, indexID, fileName string, content []byte) (string, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return "", err
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetFileReader("file", fileName, bytes.NewReader(content)).
		SetFormData(map[string]string{"purpose": "assistants"}).
		SetResult(&uploaded).
		Post("/v1/files")
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	if resp.IsError() {
		return "", providerError(resp.StatusCode(), resp.Body())
	}

	attach, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(map[string]string{"file_id": uploaded.ID}).
		Post(fmt.Sprintf("/v1/vector_stores/%s/files", indexID))
	if err != nil {
		return "", fmt.Errorf("attach file to vector store: %w", err)
	}
	if attach.IsError() {
		return "", providerError(attach.StatusCode(), attach.Body())
	}

	return uploaded.ID, nil
}
