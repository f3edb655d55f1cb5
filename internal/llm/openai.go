package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend for OpenAI-compatible Chat Completions APIs.
type OpenAIBackend struct {
	client *openai.Client
}

// OpenAIOption configures the OpenAI backend.
type OpenAIOption func(*openai.ClientConfig)

// WithOpenAIBaseURL sets a custom base URL (e.g., for Azure OpenAI or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openai.ClientConfig) { c.BaseURL = strings.TrimRight(url, "/") }
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(c *openai.ClientConfig) { c.HTTPClient = client }
}

// NewOpenAIBackend creates an OpenAI backend.
func NewOpenAIBackend(apiKey string, opts ...OpenAIOption) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAIBackend) Name() string { return ProviderOpenAI }

// Generate sends a single-turn chat completion.
func (o *OpenAIBackend) Generate(ctx context.Context, model, prompt string, opts *GenerateOptions) (*Response, error) {
	req := openai.ChatCompletionRequest{Model: model}
	if opts != nil {
		if opts.SystemPrompt != "" {
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleSystem, Content: opts.SystemPrompt,
			})
		}
		req.Temperature = float32(opts.Temperature)
		req.MaxTokens = opts.MaxTokens
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%s/%s: %w", ProviderOpenAI, model, ErrEmptyResponse)
	}

	out := &Response{
		Content:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:    model,
		Provider: ProviderOpenAI,
		Latency:  time.Since(start),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	return out, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %v", ProviderOpenAI, ErrRateLimit, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %v", ProviderOpenAI, ErrNoAPIKey, err)
		case apiErr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", ProviderOpenAI, ErrInvalidModel, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%s: %w: %v", ProviderOpenAI, ErrProviderDown, err)
		}
	}
	return classifyMessage(ProviderOpenAI, err)
}
