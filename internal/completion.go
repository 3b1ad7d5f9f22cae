package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"

	DefaultBaseURL           = "https://api.openai.com/v1"
	DefaultModel             = "gpt-3.5-turbo"
	DefaultCompletionTimeout = 60 * time.Second

	maxErrorBody = 512
)

// Completer maps one user message to one assistant reply
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// CompletionConfig describes how to reach the completion service
type CompletionConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Region   string        `yaml:"region,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NewCompleter builds the Completer for cfg.Provider
func NewCompleter(ctx context.Context, cfg CompletionConfig) (Completer, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderArk:
		return NewArkClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s (supported: %s, %s)", cfg.Provider, ProviderOpenAI, ProviderArk)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to an OpenAI-compatible chat/completions endpoint.
// It sends only the latest user turn and never retries.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a client from cfg, filling defaults for empty fields
func NewOpenAIClient(cfg CompletionConfig) *OpenAIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the model identifier sent with each request
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends userText as a single user turn and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, userText string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	if c.apiKey == "" {
		return "", c.fail(0, errors.New("API key not configured"))
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: userText}},
	})
	if err != nil {
		return "", c.fail(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", c.fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	LogDebug("Requesting completion: model=%s input_len=%d", c.model, len(userText))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.fail(resp.StatusCode, fmt.Errorf("unexpected status: %s", truncate(string(raw), maxErrorBody)))
	}

	content, err := parseCompletion(raw)
	if err != nil {
		return "", c.fail(resp.StatusCode, err)
	}

	logWith("model", c.model, "elapsed", time.Since(start), "reply_len", len(content)).Debug("Completion received")
	return content, nil
}

// CloseIdleConnections releases pooled connections
func (c *OpenAIClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func (c *OpenAIClient) fail(status int, err error) error {
	return &CompletionError{Provider: ProviderOpenAI, StatusCode: status, Err: err}
}

// parseCompletion extracts choices[0].message.content
func parseCompletion(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", fmt.Errorf("%w: API error: %s", ErrMalformedResponse, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", fmt.Errorf("%w: choices[0].message.content missing", ErrMalformedResponse)
	}
	return *msg.Content, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
