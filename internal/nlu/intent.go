package nlu

import (
	"context"
	"strings"
	"time"

	"github.com/seenimoa/marketlyst/internal/llm"
	"github.com/seenimoa/marketlyst/internal/logger"
)

// Intent is a coarse classification of what the user wants. The set is
// closed; any unrecognized label maps to IntentFallback.
type Intent string

const (
	IntentAnalyzeNews      Intent = "analyze_news"
	IntentGetPrice         Intent = "get_price"
	IntentInvestmentAdvice Intent = "investment_advice"
	IntentGeneralChat      Intent = "general_chat"
	IntentFallback         Intent = "fallback"
)

// validIntents is the closed label vocabulary accepted from the model.
var validIntents = map[string]Intent{
	"analyze_news":      IntentAnalyzeNews,
	"get_price":         IntentGetPrice,
	"investment_advice": IntentInvestmentAdvice,
	"general_chat":      IntentGeneralChat,
	"fallback":          IntentFallback,
}

const intentPrompt = `Класифікуй запит користувача в одну з категорій:
- analyze_news: аналіз новин або ринкової ситуації
- get_price: запит ціни акції чи криптовалюти
- investment_advice: інвестиційні поради
- general_chat: привітання або загальне спілкування
- fallback: нічого з переліченого

Поверни ЛИШЕ назву категорії, без пояснень.`

// IntentClassifier maps raw text to an Intent via a single LLM call.
// The keyword planner is the primary router; this classifier serves as
// an alternate signal (used by the bot for per-intent statistics).
type IntentClassifier struct {
	provider llm.Provider
	timeout  time.Duration
}

// NewIntentClassifier creates a classifier. A nil provider always
// classifies as IntentFallback.
func NewIntentClassifier(provider llm.Provider) *IntentClassifier {
	return &IntentClassifier{
		provider: provider,
		timeout:  15 * time.Second,
	}
}

// Classify returns the intent for text. It never returns an error; any
// failure or unrecognized label yields IntentFallback.
func (c *IntentClassifier) Classify(ctx context.Context, text string) Intent {
	if c.provider == nil {
		return IntentFallback
	}

	raw, err := c.provider.Complete(ctx, intentPrompt, text, &llm.Options{
		Temperature: 0,
		MaxTokens:   20,
		Timeout:     c.timeout,
	})
	if err != nil {
		logger.WithComponent("nlu").WithError(err).Warn("intent classification failed")
		return IntentFallback
	}

	label := strings.ToLower(strings.TrimSpace(raw))
	if intent, ok := validIntents[label]; ok {
		return intent
	}
	return IntentFallback
}
