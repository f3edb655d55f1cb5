package prompts

import (
	"fmt"
	"strings"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// advisoryTemplate is filled positionally by Advisory:
// role, language, symbol, price, change, rsi, news, rsi.
const advisoryTemplate = `You are %s. Analyze %s in %s.

[Live Data]
- Price: %s
- Change: %s
- RSI (%d): %s

[Recent News]
%s

Answer concisely in a format that is easy to read on a phone:
1. **Trend Interpretation**: What does today's move mean? Is the trend strong or weak?
2. **Technical Risk**: Is the RSI (%s) overbought, oversold, or diverging from price?
3. **Trading Guidance**: Entry and exit ranges for aggressive traders and for conservative traders.`

// Advisory renders the advisory prompt for req. All numbers carry two decimals.
func Advisory(req models.AnalysisRequest, language string) string {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	period := req.Indicator.Period
	if period == 0 {
		period = 14
	}
	rsi := req.Indicator.Format()
	news := strings.TrimSpace(req.News.Text())
	if news == "" {
		news = "None."
	}

	return fmt.Sprintf(advisoryTemplate,
		PersonaFor(req.AssetClass).Role,
		req.Symbol,
		language,
		req.Snapshot.PriceText(),
		req.Snapshot.ChangeText(),
		period,
		rsi,
		news,
		rsi,
	)
}
