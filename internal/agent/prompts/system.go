// Package prompts contains the advisor personas and the advisory prompt
// template used by the composer.
package prompts

import "github.com/seenimoa/tickerlens/pkg/models"

// DefaultLanguage is the output language when none is configured.
const DefaultLanguage = "Traditional Chinese"

// ── Personas ──

// Persona identifies the analyst role the model is asked to play.
type Persona struct {
	Key  string
	Role string
}

var (
	// PersonaFundManager handles US and other global listings.
	PersonaFundManager = Persona{
		Key:  "fund_manager",
		Role: "a Wall Street fund manager",
	}

	// PersonaTaiwanAnalyst handles TWSE and TPEx listings.
	PersonaTaiwanAnalyst = Persona{
		Key:  "taiwan_analyst",
		Role: "a senior Taiwan equity analyst familiar with foreign institutional flows and the TWD exchange rate",
	}

	// PersonaCommoditySpecialist handles futures, commodity ETFs and crypto.
	PersonaCommoditySpecialist = Persona{
		Key:  "commodity_specialist",
		Role: "a commodity and cryptocurrency specialist",
	}
)

// PersonaFor returns the persona for an asset class. Unknown classes get the fund manager.
func PersonaFor(class models.AssetClass) Persona {
	switch class {
	case models.AssetTaiwanEquity:
		return PersonaTaiwanAnalyst
	case models.AssetCommodityOrCrypto:
		return PersonaCommoditySpecialist
	default:
		return PersonaFundManager
	}
}
