// Package sentiment classifies market news tonality and generates
// investment advice through the LLM provider.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketlyst/internal/llm"
	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/pkg/models"
)

const analysisRules = `Проаналізуй тональність економічної новини для ринку.

Класифікуй як:
- bullish: позитивний вплив на ринок (зростання, позитивні показники)
- bearish: негативний вплив на ринок (падіння, негативні показники)
- neutral: нейтральний або неоднозначний вплив

Поверни результат у JSON форматі:
{
  "sentiment": "bullish/bearish/neutral",
  "explanation": "коротке пояснення чому така оцінка (до 50 слів)",
  "confidence": 0.8
}`

const adviceRules = `Ти експерт з інвестицій, який надає поради на основі аналізу новин та цін.

На основі наданих даних:
- Ринкової тональності новин
- Поточних цін активів
- Загальної ситуації на ринку

Дай короткі, практичні поради щодо інвестування.

Структура відповіді:
📊 **Короткий аналіз ситуації**
💡 **Рекомендації:**
⚠️ **Ризики:**

Будь конкретним але обережним. Згадай що це не фінансова консультація.`

const (
	// maxBatchItems bounds how many articles one batch analyzes.
	maxBatchItems = 3
	// maxConcurrent bounds in-flight sentiment calls.
	maxConcurrent = 5
	// maxNewsChars truncates long article text before sending.
	maxNewsChars = 2000
)

// Analyzer classifies news tonality and generates advice text.
type Analyzer struct {
	provider    llm.Provider
	maxItems    int
	concurrency int
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithMaxItems overrides how many articles a batch analyzes.
func WithMaxItems(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxItems = n
		}
	}
}

// WithConcurrency overrides the in-flight call limit.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAnalyzer creates an analyzer over the given provider.
func NewAnalyzer(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider:    provider,
		maxItems:    maxBatchItems,
		concurrency: maxConcurrent,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeOne classifies a single article text. Malformed model output is
// a recoverable parse failure, reported as an error to the caller.
func (a *Analyzer) AnalyzeOne(ctx context.Context, newsText string) (models.SentimentResult, error) {
	if runes := []rune(newsText); len(runes) > maxNewsChars {
		newsText = string(runes[:maxNewsChars])
	}

	raw, err := a.provider.Complete(ctx, analysisRules, "Новина: "+newsText, &llm.Options{
		Temperature: 0,
		MaxTokens:   300,
		Timeout:     30 * time.Second,
	})
	if err != nil {
		return models.SentimentResult{}, err
	}

	jsonStr, ok := llm.ExtractJSON(raw)
	if !ok {
		return models.SentimentResult{}, fmt.Errorf("sentiment response has no JSON")
	}

	var result models.SentimentResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return models.SentimentResult{}, fmt.Errorf("sentiment JSON unparseable: %w", err)
	}
	result.Sentiment = strings.ToLower(result.Sentiment)
	return result, nil
}

// AnalyzeBatch classifies the first maxItems articles concurrently,
// bounded by the concurrency limit. Each item's failure is isolated: a
// failed item yields a neutral result carrying the error text. The
// returned slice always matches the analyzed item count.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, articles []models.NewsArticle) []models.SentimentResult {
	if len(articles) > a.maxItems {
		articles = articles[:a.maxItems]
	}
	if len(articles) == 0 {
		return nil
	}

	results := make([]models.SentimentResult, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, article := range articles {
		i, article := i, article
		g.Go(func() error {
			result, err := a.AnalyzeOne(gctx, article.FullText())
			if err != nil {
				logger.WithComponent("sentiment").WithError(err).Warn("item analysis failed")
				results[i] = models.SentimentResult{
					Sentiment:   models.SentimentNeutral,
					Explanation: truncateError(err),
					Confidence:  0.0,
				}
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// GenerateAdvice produces free-text investment advice from a market
// context summary. The disclaimer is always appended.
func (a *Analyzer) GenerateAdvice(ctx context.Context, marketContext string) (string, error) {
	system := marketContext + "\n\n" + adviceRules
	advice, err := a.provider.Complete(ctx, system, "Дай інвестиційні поради на основі поточної ситуації", &llm.Options{
		Temperature: 0.3,
		MaxTokens:   1024,
		Timeout:     20 * time.Second,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(advice) + "\n\n⚠️ **Дисклеймер:** Це не фінансова консультація. Завжди консультуйтеся з професіоналами.", nil
}

// truncateError formats an error for a user-adjacent explanation field.
func truncateError(err error) string {
	msg := []rune("Помилка аналізу: " + err.Error())
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return string(msg)
}
