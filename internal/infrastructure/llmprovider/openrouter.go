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

// OpenRouterClient talks to an OpenRouter-style chat completions API.
// Citations arrive inline as url_citation annotations on delta chunks; there
// is no separate citation fetch. The API has no server-side continuation, so
// the request's continuation token is not sent.
type OpenRouterClient struct {
	httpClient    *resty.Client
	baseURL       string
	apiKey        string
	streamTimeout time.Duration
}

// NewOpenRouterClient creates a Resty-backed client.
func NewOpenRouterClient(baseURL, apiKey string, streamTimeout time.Duration) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(75 * time.Second),
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		streamTimeout: streamTimeout,
	}
}

var _ llm.Provider = (*OpenRouterClient)(nil)

func (c *OpenRouterClient) credential(ctx context.Context) (string, error) {
	if key := llm.CredentialFromContext(ctx); key != "" {
		return key, nil
	}
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return "", llm.ErrMissingCredential
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPlugin struct {
	ID string `json:"id"`
}

type chatCompletionRequest struct {
	Model     string           `json:"model"`
	Messages  []chatMessage    `json:"messages"`
	Stream    bool             `json:"stream,omitempty"`
	Plugins   []chatPlugin     `json:"plugins,omitempty"`
	Reasoning *reasoningConfig `json:"reasoning,omitempty"`
}

type chatAnnotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"url_citation"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content     string           `json:"content"`
			Annotations []chatAnnotation `json:"annotations,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func buildChatRequest(req llm.GenerateRequest, stream bool) chatCompletionRequest {
	out := chatCompletionRequest{
		Model:  req.Model.ID,
		Stream: stream,
	}
	if req.Instructions != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.Instructions})
	}
	out.Messages = append(out.Messages, chatMessage{Role: "user", Content: req.Input})

	for _, tool := range req.Tools {
		if tool.Type == llm.ToolWebSearch {
			out.Plugins = append(out.Plugins, chatPlugin{ID: "web"})
		}
	}
	if req.ReasoningEffort != "" {
		out.Reasoning = &reasoningConfig{Effort: req.ReasoningEffort}
	}
	return out
}

// Generate performs a blocking call against /v1/chat/completions.
func (c *OpenRouterClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	var result chatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetBody(buildChatRequest(req, false)).
		SetResult(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion call: %w", err)
	}
	if resp.IsError() {
		return nil, providerError(resp.StatusCode(), resp.Body())
	}
	if result.Error != nil {
		return nil, &llm.ProviderError{StatusCode: resp.StatusCode(), Code: result.Error.Code, Message: result.Error.Message}
	}

	var text string
	if len(result.Choices) > 0 {
		text = result.Choices[0].Message.Content
	}
	return &llm.GenerateResult{ResponseID: result.ID, Text: text}, nil
}

// GenerateStream opens an SSE stream against /v1/chat/completions.
func (c *OpenRouterClient) GenerateStream(ctx context.Context, req llm.GenerateRequest) (llm.Stream, error) {
	key, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildChatRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
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

	return &chatCompletionStream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

// chatCompletionStream normalizes chat completion chunks into stream events.
// One chunk can yield several events, so decoded events queue up in pending.
type chatCompletionStream struct {
	resp    *http.Response
	reader  *bufio.Reader
	pending []*llm.StreamEvent
	started bool
}

type chatCompletionChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content     string           `json:"content"`
			Reasoning   string           `json:"reasoning"`
			Annotations []chatAnnotation `json:"annotations,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func (s *chatCompletionStream) Recv() (*llm.StreamEvent, error) {
	for {
		if len(s.pending) > 0 {
			event := s.pending[0]
			s.pending = s.pending[1:]
			return event, nil
		}

		frame, err := readFrame(s.reader)
		if err != nil {
			return nil, err
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(frame.data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return nil, &llm.ProviderError{StatusCode: http.StatusOK, Code: chunk.Error.Code, Message: chunk.Error.Message}
		}

		if !s.started {
			s.started = true
			s.pending = append(s.pending, &llm.StreamEvent{Type: llm.EventCreated, ResponseID: chunk.ID})
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Reasoning != "" {
				s.pending = append(s.pending, &llm.StreamEvent{Type: llm.EventReasoningDelta, Delta: choice.Delta.Reasoning})
			}
			if choice.Delta.Content != "" {
				s.pending = append(s.pending, &llm.StreamEvent{Type: llm.EventContentDelta, Delta: choice.Delta.Content})
			}
			if len(choice.Delta.Annotations) > 0 {
				s.pending = append(s.pending, &llm.StreamEvent{
					Type:        llm.EventTextDone,
					Annotations: convertChatAnnotations(choice.Delta.Annotations),
				})
			}
			if choice.FinishReason != nil && *choice.FinishReason != "" {
				s.pending = append(s.pending, &llm.StreamEvent{Type: llm.EventCompleted, ResponseID: chunk.ID})
			}
		}
	}
}

func (s *chatCompletionStream) Close() error {
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}

func convertChatAnnotations(raw []chatAnnotation) []llm.Annotation {
	out := make([]llm.Annotation, 0, len(raw))
	for _, a := range raw {
		if a.Type != "url_citation" {
			continue
		}
		out = append(out, llm.Annotation{
			Type:  llm.AnnotationURLCitation,
			URL:   a.URLCitation.URL,
			Title: a.URLCitation.Title,
		})
	}
	return out
}
