// Package agent runs the TickerLens analysis pipeline: classification,
// market data, news, and the advisory produced by the model fallback chain.
package agent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/agent/prompts"
	"github.com/seenimoa/tickerlens/internal/llm"
	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// ExhaustedMessage is returned as advisory text when every model candidate failed.
const ExhaustedMessage = "System busy: none of the AI models can respond right now, please try again later."

// Generator submits a prompt to an ordered set of model candidates.
// *llm.Chain implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) *llm.Result
}

// Composer turns an AnalysisRequest into an Advisory.
type Composer struct {
	gen      Generator
	language string
	log      zerolog.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLanguage sets the advisory output language.
func WithLanguage(lang string) ComposerOption {
	return func(c *Composer) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithComposerLogger sets the logger.
func WithComposerLogger(l zerolog.Logger) ComposerOption {
	return func(c *Composer) { c.log = l }
}

// NewComposer creates a Composer over gen.
func NewComposer(gen Generator, opts ...ComposerOption) *Composer {
	c := &Composer{
		gen:      gen,
		language: prompts.DefaultLanguage,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Prompt renders the advisory prompt for req. A request without a known
// asset class is classified from its symbol.
func (c *Composer) Prompt(req models.AnalysisRequest) string {
	if !req.AssetClass.Valid() {
		req.AssetClass = utils.ClassifyTicker(utils.NormalizeTicker(req.Symbol))
	}
	return prompts.Advisory(req, c.language)
}

// Compose builds the prompt and runs it through the fallback chain. It never
// fails: when no candidate answers, the advisory carries ExhaustedMessage.
func (c *Composer) Compose(ctx context.Context, req models.AnalysisRequest) models.Advisory {
	res := c.gen.Generate(ctx, c.Prompt(req))

	adv := models.Advisory{Attempts: convertAttempts(res.Attempts)}
	if res.Exhausted() {
		adv.Text = ExhaustedMessage
		adv.Exhausted = true
		c.log.Warn().
			Str("event", "advisory_exhausted").
			Str("symbol", req.Symbol).
			Int("attempts", len(res.Attempts)).
			Msg("no model produced an advisory")
		return adv
	}

	adv.Text = res.Response.Content
	adv.Provider = res.Response.Provider
	adv.Model = res.Response.Model
	return adv
}

func convertAttempts(in []llm.Attempt) []models.Attempt {
	out := make([]models.Attempt, 0, len(in))
	for _, a := range in {
		m := models.Attempt{
			Provider: a.Provider,
			Model:    a.Model,
			Skipped:  a.Skipped,
			Latency:  a.Latency,
		}
		if a.Err != nil {
			m.Err = a.Err.Error()
		}
		out = append(out, m)
	}
	return out
}
