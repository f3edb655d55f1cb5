// Package llm provides the model backends (Gemini, OpenAI) and the ordered
// fallback chain used to generate advisory text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Common errors returned by model backends.
var (
	ErrNoAPIKey              = errors.New("llm: API key not configured")
	ErrRateLimit             = errors.New("llm: rate limit exceeded")
	ErrProviderDown          = errors.New("llm: provider unavailable")
	ErrInvalidModel          = errors.New("llm: invalid model")
	ErrEmptyResponse         = errors.New("llm: empty response")
	ErrProviderNotRegistered = errors.New("llm: provider not registered")
)

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response represents a complete response from a backend.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Usage    Usage         `json:"usage"`
	Latency  time.Duration `json:"latency"`
}

// GenerateOptions configures a single generation request.
type GenerateOptions struct {
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
}

// Backend is the interface that all model backends implement.
type Backend interface {
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string

	// Generate submits a single prompt to model and returns the full text.
	Generate(ctx context.Context, model, prompt string, opts *GenerateOptions) (*Response, error)
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, truncated, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}

// classifyMessage maps provider error text onto the package sentinels.
func classifyMessage(provider string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return fmt.Errorf("%s: %w: %v", provider, ErrRateLimit, err)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "permission_denied") || strings.Contains(msg, "401"):
		return fmt.Errorf("%s: %w: %v", provider, ErrNoAPIKey, err)
	case strings.Contains(msg, "not_found") || strings.Contains(msg, "404"):
		return fmt.Errorf("%s: %w: %v", provider, ErrInvalidModel, err)
	case strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "500"):
		return fmt.Errorf("%s: %w: %v", provider, ErrProviderDown, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}
