// Package openai implements domain.Completer against OpenAI-compatible
// chat-completions endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
	"github.com/trafficlens/traffic-event-finder/internal/observability"
)

// Client calls an OpenAI-compatible chat-completions API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

var _ domain.Completer = (*Client)(nil)

// NewClient creates a completion client. endpoint is the full chat-completions
// URL, e.g. "https://api.openai.com/v1/chat/completions".
func NewClient(endpoint, apiKey, model string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string, opts domain.CompleteOptions) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("completion client: no API key configured")
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONOnly {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.CompletionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CompletionRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.CompletionRequests.WithLabelValues("error").Inc()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion API error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.CompletionRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		c.metrics.CompletionRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("completion response has no choices")
	}

	c.metrics.CompletionRequests.WithLabelValues("success").Inc()
	return parsed.Choices[0].Message.Content, nil
}

// Wire types for the chat-completions API.

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
