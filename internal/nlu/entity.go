package nlu

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/seenimoa/marketlyst/internal/llm"
	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/pkg/models"
)

// Entity is a resolved financial instrument.
type Entity struct {
	Symbol string            `json:"symbol"`
	Class  models.AssetClass `json:"asset_class"`
}

// EntityInfo is the result of resolving one utterance. Entity is non-nil
// iff IsFinancial is true. Confidence is advisory; it never gates control
// flow beyond the IsFinancial boolean.
type EntityInfo struct {
	IsFinancial bool    `json:"is_financial"`
	Entity      *Entity `json:"entity,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// tickerPattern matches a bare uppercase token of 3-5 letters.
var tickerPattern = regexp.MustCompile(`\b[A-Z]{3,5}\b`)

// ClassifySymbol returns the asset class for a canonical symbol. Known
// symbols come from the category lists; unknown symbols are guessed:
// a "USD" suffix on a short symbol means crypto, a 6-letter uppercase
// symbol means forex, anything else is a stock.
func ClassifySymbol(symbol string) models.AssetClass {
	switch {
	case cryptoSymbols[symbol]:
		return models.AssetCrypto
	case forexSymbols[symbol]:
		return models.AssetForex
	case stockSymbols[symbol]:
		return models.AssetStock
	}
	if strings.HasSuffix(symbol, "USD") && len(symbol) <= 7 {
		return models.AssetCrypto
	}
	if len(symbol) == 6 && symbol == strings.ToUpper(symbol) {
		return models.AssetForex
	}
	return models.AssetStock
}

// EntityResolver maps raw text to a financial entity. The lookup order is
// fixed: blocklist, alias dictionary, ticker regex, LLM fallback. Only
// the last step touches the network.
type EntityResolver struct {
	provider llm.Provider
	timeout  time.Duration
}

// NewEntityResolver creates a resolver. The provider may be nil, in which
// case the LLM fallback step is skipped and unresolved text is treated as
// non-financial.
func NewEntityResolver(provider llm.Provider) *EntityResolver {
	return &EntityResolver{
		provider: provider,
		timeout:  15 * time.Second,
	}
}

// Resolve maps text to an EntityInfo. It never returns an error; every
// failure path degrades to a non-financial result.
func (r *EntityResolver) Resolve(ctx context.Context, text string) EntityInfo {
	lower := strings.ToLower(text)

	// Step 1: non-financial blocklist.
	if containsBlocked(lower) {
		return EntityInfo{IsFinancial: false, Confidence: 0.8}
	}

	// Step 2: alias dictionary. First containment match wins.
	for _, alias := range aliasOrder {
		if strings.Contains(lower, alias) {
			symbol := aliases[alias]
			return EntityInfo{
				IsFinancial: true,
				Entity:      &Entity{Symbol: symbol, Class: ClassifySymbol(symbol)},
				Confidence:  0.9,
			}
		}
	}

	// Step 3: bare uppercase ticker.
	if token := tickerPattern.FindString(text); token != "" {
		return EntityInfo{
			IsFinancial: true,
			Entity:      &Entity{Symbol: token, Class: ClassifySymbol(token)},
			Confidence:  0.7,
		}
	}

	// Step 4: LLM fallback.
	return r.resolveWithLLM(ctx, text)
}

const entityPrompt = `Ти класифікатор фінансових запитів. Визнач, чи стосується текст фінансового активу.

Поверни СТРОГО JSON без додаткового тексту:
{
  "is_financial": true/false,
  "entity": "канонічний символ (AAPL, BTCUSD, EURUSD) або пустий рядок",
  "entity_type": "stock/crypto/forex",
  "confidence": 0.0-1.0
}`

type entityLLMResult struct {
	IsFinancial bool    `json:"is_financial"`
	Entity      string  `json:"entity"`
	EntityType  string  `json:"entity_type"`
	Confidence  float64 `json:"confidence"`
}

// resolveWithLLM asks the provider for a strict-JSON classification.
// Parse or request failures degrade to a non-financial result.
func (r *EntityResolver) resolveWithLLM(ctx context.Context, text string) EntityInfo {
	none := EntityInfo{IsFinancial: false, Confidence: 0.0}
	if r.provider == nil {
		return none
	}

	raw, err := r.provider.Complete(ctx, entityPrompt, text, &llm.Options{
		Temperature: 0,
		MaxTokens:   200,
		Timeout:     r.timeout,
	})
	if err != nil {
		logger.WithComponent("nlu").WithError(err).Warn("entity LLM fallback failed")
		return none
	}

	jsonStr, ok := llm.ExtractJSON(raw)
	if !ok {
		logger.WithComponent("nlu").Warn("entity LLM returned no JSON")
		return none
	}

	var result entityLLMResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		logger.WithComponent("nlu").WithError(err).Warn("entity LLM JSON unparseable")
		return none
	}

	if !result.IsFinancial || result.Entity == "" {
		return EntityInfo{IsFinancial: false, Confidence: result.Confidence}
	}

	symbol := strings.ToUpper(strings.TrimSpace(result.Entity))
	class := ClassifySymbol(symbol)
	switch result.EntityType {
	case "crypto":
		class = models.AssetCrypto
	case "forex":
		class = models.AssetForex
	case "stock":
		class = models.AssetStock
	}

	return EntityInfo{
		IsFinancial: true,
		Entity:      &Entity{Symbol: symbol, Class: class},
		Confidence:  result.Confidence,
	}
}
