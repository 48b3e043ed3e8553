package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider on top of the OpenAI chat completions
// API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	baseURL string
	retry   RetryConfig
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithModel sets the default model.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) { p.model = model }
}

// WithRetryConfig overrides the default backoff settings.
func WithRetryConfig(cfg RetryConfig) OpenAIOption {
	return func(p *OpenAIProvider) { p.retry = cfg }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = url }
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{
		model: openai.GPT3Dot5Turbo,
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}

	cfg := openai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	p.client = openai.NewClientWithConfig(cfg)
	return p, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends one system+user exchange and returns the reply text.
// Transient failures are retried with bounded exponential backoff; every
// attempt carries its own timeout so no call blocks indefinitely.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string, opts *Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	timeout := 30 * time.Second
	if opts != nil {
		req.Temperature = opts.Temperature
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}

	var content string
	err := WithRetry(ctx, p.retry, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := p.client.CreateChatCompletion(attemptCtx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: empty choices", ErrBadResponse)
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}
