package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const DefaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// messageGenerator is the part of an eino chat model the client needs
type messageGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ArkClient completes through an eino chat model backed by Volcengine Ark
type ArkClient struct {
	model   messageGenerator
	name    string
	timeout time.Duration
}

// NewArkClient creates the Ark chat model described by cfg
func NewArkClient(ctx context.Context, cfg CompletionConfig) (*ArkClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("ark provider requires api_key and model")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" || baseURL == DefaultBaseURL {
		baseURL = DefaultArkBaseURL
	}
	region := cfg.Region
	if region == "" {
		region = "cn-beijing"
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: baseURL,
		Region:  region,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	return newArkClient(chatModel, cfg.Model, cfg.Timeout), nil
}

func newArkClient(gen messageGenerator, name string, timeout time.Duration) *ArkClient {
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &ArkClient{model: gen, name: name, timeout: timeout}
}

// Complete sends userText as a single user message
func (c *ArkClient) Complete(ctx context.Context, userText string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reply, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(userText)})
	if err != nil {
		return "", &CompletionError{Provider: ProviderArk, Err: err}
	}
	if reply == nil {
		return "", &CompletionError{Provider: ProviderArk, Err: fmt.Errorf("%w: empty reply", ErrMalformedResponse)}
	}

	LogDebug("[ark] completion received: model=%s reply_len=%d", c.name, len(reply.Content))
	return reply.Content, nil
}
