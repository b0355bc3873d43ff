package llm

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
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is used when no model is configured.
const DefaultModel = "llama-3.1-8b-instant"

// GroqClient talks to an OpenAI-compatible chat completions API.
type GroqClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGroqClient creates a Groq client. Empty baseURL and model fall back to
// the package defaults.
func NewGroqClient(baseURL, apiKey, model string) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &GroqClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider name.
func (c *GroqClient) Name() string { return "groq" }

// wire types for the OpenAI-compatible API

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a non-streaming completion request.
func (c *GroqClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	payload, err := json.Marshal(c.buildRequestBody(req, false))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider error (%d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	model := result.Model
	if model == "" {
		model = c.model
	}
	return &CompletionResponse{
		Content: result.Choices[0].Message.Content,
		Model:   model,
		Usage: Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		},
	}, nil
}

// Stream sends a streaming completion request. Events arrive on the returned
// channel; the terminal event is either done or error.
func (c *GroqClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(c.buildRequestBody(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	events := make(chan StreamEvent)
	go c.streamRequest(ctx, events, payload)
	return events, nil
}

func (c *GroqClient) streamRequest(ctx context.Context, events chan<- StreamEvent, payload []byte) {
	defer close(events)

	httpReq, err := c.newRequest(ctx, payload)
	if err != nil {
		events <- StreamEvent{Type: EventError, Error: err.Error()}
		return
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		events <- StreamEvent{Type: EventError, Error: fmt.Sprintf("stream request: %v", err)}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		events <- StreamEvent{Type: EventError, Error: fmt.Sprintf("provider error (%d): %s", resp.StatusCode, string(body))}
		return
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if token := chunk.Choices[0].Delta.Content; token != "" {
			full.WriteString(token)
			select {
			case events <- StreamEvent{Type: EventDelta, Content: token}:
			case <-ctx.Done():
				events <- StreamEvent{Type: EventError, Error: ctx.Err().Error()}
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		events <- StreamEvent{Type: EventError, Error: fmt.Sprintf("reading stream: %v", err)}
		return
	}

	events <- StreamEvent{
		Type: EventDone,
		Response: &CompletionResponse{
			Content: full.String(),
			Model:   c.model,
		},
	}
}

func (c *GroqClient) buildRequestBody(req CompletionRequest, stream bool) chatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	return chatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
}

func (c *GroqClient) newRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return httpReq, nil
}
