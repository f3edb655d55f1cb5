package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/"
	defaultGeminiAPIVersion = "v1beta"
)

// GeminiBackend implements Backend on top of the Google GenAI SDK.
type GeminiBackend struct {
	client *genai.Client
}

type geminiSettings struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// GeminiOption configures the Gemini backend.
type GeminiOption func(*geminiSettings)

// WithGeminiBaseURL overrides the API endpoint. A trailing version segment
// such as "/v1beta" is split off and used as the API version.
func WithGeminiBaseURL(endpoint string) GeminiOption {
	return func(s *geminiSettings) {
		s.baseURL, s.apiVersion = splitGeminiEndpoint(endpoint)
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(s *geminiSettings) { s.httpClient = client }
}

// NewGeminiBackend creates a Gemini backend.
func NewGeminiBackend(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiBackend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	s := &geminiSettings{
		baseURL:    defaultGeminiBaseURL,
		apiVersion: defaultGeminiAPIVersion,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    s.baseURL,
			APIVersion: s.apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

func (g *GeminiBackend) Name() string { return ProviderGemini }

// Generate sends a single-turn prompt and returns the concatenated text.
func (g *GeminiBackend) Generate(ctx context.Context, model, prompt string, opts *GenerateOptions) (*Response, error) {
	cfg := &genai.GenerateContentConfig{}
	if opts != nil {
		if opts.SystemPrompt != "" {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemPrompt}}}
		}
		if opts.Temperature > 0 {
			cfg.Temperature = genai.Ptr(float32(opts.Temperature))
		}
		if opts.MaxTokens > 0 {
			cfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, classifyMessage(ProviderGemini, err)
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return nil, fmt.Errorf("%s/%s: %w", ProviderGemini, model, ErrEmptyResponse)
	}
	out := &Response{
		Content:  content,
		Model:    model,
		Provider: ProviderGemini,
		Latency:  time.Since(start),
	}
	if v := strings.TrimSpace(resp.ModelVersion); v != "" {
		out.Model = v
	}
	return out, nil
}

// splitGeminiEndpoint separates "https://host/prefix/v1beta" into the base
// URL and API version the SDK expects.
func splitGeminiEndpoint(endpoint string) (string, string) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return defaultGeminiBaseURL, defaultGeminiAPIVersion
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return defaultGeminiBaseURL, defaultGeminiAPIVersion
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	version := defaultGeminiAPIVersion
	if n := len(segments); n > 0 && strings.HasPrefix(strings.ToLower(segments[n-1]), "v1") {
		version = segments[n-1]
		segments = segments[:n-1]
	}
	u.Path = "/" + strings.Join(segments, "/")
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), version
}
