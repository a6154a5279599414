// Package llm talks to an OpenAI-compatible chat-completion endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tripplan/internal/core"
)

const completionsPath = "/chat/completions"

// Request is a single-prompt completion request.
type Request struct {
	APIKey      string
	Model       string
	Prompt      string
	Temperature float64
}

// Completion is the decoded upstream answer. Found is false when the response
// carried no first-choice message content.
type Completion struct {
	Content string
	Found   bool
	Usage   Usage
}

// Usage reports token counts when the upstream includes them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completer is the seam the proxy depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Client is a chat-completion client bound to one base URL.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Completer = (*Client)(nil)

// NewClient creates a client for baseURL (for example
// https://dashscope.aliyuncs.com/compatible-mode/v1). A zero timeout leaves
// requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + completionsPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Complete sends one user-role prompt and returns the first choice's content.
// Non-2xx responses become *core.UpstreamError carrying the body verbatim.
func (c *Client) Complete(ctx context.Context, r Request) (Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       r.Model,
		Messages:    []message{{Role: "user", Content: r.Prompt}},
		Temperature: r.Temperature,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Completion{}, &core.UpstreamError{Service: "llm", Status: resp.StatusCode, Body: string(raw)}
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return Completion{}, fmt.Errorf("llm: %w: %v", core.ErrMalformedUpstream, err)
	}

	out := Completion{}
	if cr.Usage != nil {
		out.Usage = *cr.Usage
	}
	if len(cr.Choices) > 0 && cr.Choices[0].Message.Content != nil {
		out.Content = *cr.Choices[0].Message.Content
		out.Found = strings.TrimSpace(out.Content) != ""
	}
	return out, nil
}
