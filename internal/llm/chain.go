package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/config"
)

// DefaultBackoff is the fixed pause between failed candidates.
const DefaultBackoff = time.Second

// Candidate is one (provider, model) entry of the fallback chain.
type Candidate struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (c Candidate) String() string { return c.Provider + "/" + c.Model }

// BackendFactory instantiates a backend for a candidate. It is called once
// per attempt, so a failure to construct a client counts as that candidate failing.
type BackendFactory func(ctx context.Context) (Backend, error)

// Attempt records the outcome of one candidate.
type Attempt struct {
	Candidate
	Err     error
	Skipped bool
	Latency time.Duration
}

// Result is the outcome of running the chain. Response is nil when every
// candidate failed or was skipped.
type Result struct {
	Response *Response
	Attempts []Attempt
}

// Exhausted reports whether no candidate produced text.
func (r *Result) Exhausted() bool { return r.Response == nil }

// Chain tries an ordered list of candidates until one succeeds.
// It is strictly sequential and never retries a candidate.
type Chain struct {
	mu         sync.RWMutex
	factories  map[string]BackendFactory
	candidates []Candidate
	backoff    time.Duration
	timeout    time.Duration
	opts       *GenerateOptions
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger
}

// ChainOption configures the chain.
type ChainOption func(*Chain)

// WithBackoff sets the pause after a failed candidate.
func WithBackoff(d time.Duration) ChainOption {
	return func(c *Chain) { c.backoff = d }
}

// WithTimeout bounds each candidate call. Zero means no per-call limit.
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// WithGenerateOptions sets the options passed to every backend call.
func WithGenerateOptions(o *GenerateOptions) ChainOption {
	return func(c *Chain) { c.opts = o }
}

// WithLogger sets the logger used for fallback events.
func WithLogger(l zerolog.Logger) ChainOption {
	return func(c *Chain) { c.log = l }
}

// WithSleep replaces the backoff wait (used in tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ChainOption {
	return func(c *Chain) { c.sleep = fn }
}

// NewChain creates a chain over candidates, in priority order.
func NewChain(candidates []Candidate, opts ...ChainOption) *Chain {
	c := &Chain{
		factories:  make(map[string]BackendFactory),
		candidates: append([]Candidate(nil), candidates...),
		backoff:    DefaultBackoff,
		sleep:      sleepCtx,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterFactory makes provider available to candidates.
func (c *Chain) RegisterFactory(provider string, f BackendFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[provider] = f
}

// Register adds an already constructed backend under its own name.
func (c *Chain) Register(b Backend) {
	c.RegisterFactory(b.Name(), func(context.Context) (Backend, error) { return b, nil })
}

// Candidates returns a copy of the configured order.
func (c *Chain) Candidates() []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Candidate(nil), c.candidates...)
}

// Providers returns the sorted names of registered providers.
func (c *Chain) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate submits prompt to each candidate in order and returns on the first
// success. Failures are logged as model_fallback events and followed by the
// backoff, except after the last candidate. A cancelled context stops the
// chain; the remaining candidates are recorded as skipped.
func (c *Chain) Generate(ctx context.Context, prompt string) *Result {
	candidates := c.Candidates()
	res := &Result{Attempts: make([]Attempt, 0, len(candidates))}

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			for _, rest := range candidates[i:] {
				res.Attempts = append(res.Attempts, Attempt{Candidate: rest, Err: err, Skipped: true})
			}
			break
		}

		start := time.Now()
		resp, err := c.try(ctx, cand, prompt)
		latency := time.Since(start)
		res.Attempts = append(res.Attempts, Attempt{Candidate: cand, Err: err, Latency: latency})

		if err == nil {
			resp.Latency = latency
			res.Response = resp
			c.log.Info().
				Str("event", "model_selected").
				Str("provider", cand.Provider).
				Str("model", cand.Model).
				Int("attempt", i+1).
				Dur("latency", latency).
				Msg("advisory generated")
			return res
		}

		c.log.Warn().
			Str("event", "model_fallback").
			Str("provider", cand.Provider).
			Str("model", cand.Model).
			Int("attempt", i+1).
			Dur("latency", latency).
			Err(err).
			Msg("model call failed, trying next candidate")

		if i < len(candidates)-1 && c.backoff > 0 {
			// A cancelled wait is picked up by the ctx check above.
			_ = c.sleep(ctx, c.backoff)
		}
	}

	c.log.Error().
		Str("event", "model_exhausted").
		Int("candidates", len(candidates)).
		Msg("all model candidates failed")
	return res
}

func (c *Chain) try(ctx context.Context, cand Candidate, prompt string) (*Response, error) {
	c.mu.RLock()
	factory, ok := c.factories[cand.Provider]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, cand.Provider)
	}

	backend, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", cand, err)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := backend.Generate(callCtx, cand.Model, prompt, c.opts)
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%s: %w", cand, ErrEmptyResponse)
	}
	if resp.Provider == "" {
		resp.Provider = cand.Provider
	}
	if resp.Model == "" {
		resp.Model = cand.Model
	}
	return resp, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewChainFromConfig builds the chain from configuration. Providers without a
// key are left unregistered; their candidates fail and the chain moves on.
func NewChainFromConfig(cfg *config.Config, log zerolog.Logger) *Chain {
	candidates := make([]Candidate, 0, len(cfg.LLM.Candidates))
	for _, cc := range cfg.LLM.Candidates {
		candidates = append(candidates, Candidate{Provider: cc.Provider, Model: cc.Model})
	}

	chain := NewChain(candidates,
		WithBackoff(cfg.LLM.Backoff),
		WithTimeout(cfg.LLM.Timeout),
		WithGenerateOptions(&GenerateOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		WithLogger(log.With().Str("component", "llm").Logger()),
	)

	if key := cfg.LLM.GeminiKey; key != "" {
		baseURL := cfg.LLM.GeminiURL
		chain.RegisterFactory(ProviderGemini, func(ctx context.Context) (Backend, error) {
			var opts []GeminiOption
			if baseURL != "" {
				opts = append(opts, WithGeminiBaseURL(baseURL))
			}
			return NewGeminiBackend(ctx, key, opts...)
		})
	}
	if key := cfg.LLM.OpenAIKey; key != "" {
		var opts []OpenAIOption
		if cfg.LLM.OpenAIURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.LLM.OpenAIURL))
		}
		if b, err := NewOpenAIBackend(key, opts...); err == nil {
			chain.Register(b)
		}
	}
	return chain
}
