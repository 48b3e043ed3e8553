package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/internal/nlu"
	"github.com/seenimoa/marketlyst/pkg/models"
)

// PriceResult is the price bag entry: either a quote or an error text.
type PriceResult struct {
	Quote *models.Quote
	Err   string
}

// Failed reports whether the price fetch failed.
func (p PriceResult) Failed() bool { return p.Err != "" }

// ResultBag accumulates action outputs for one request. Each key is
// written at most once; repeat writes are rejected so no action can
// clobber another's output. Log keeps an ordered record of what ran.
type ResultBag struct {
	Price        *PriceResult
	TargetedNews []models.NewsArticle
	GeneralNews  []models.NewsArticle
	Sentiment    []models.SentimentResult
	Advice       string

	Log []string

	written map[string]bool
}

// NewResultBag creates an empty bag for one request.
func NewResultBag() *ResultBag {
	return &ResultBag{written: make(map[string]bool)}
}

func (b *ResultBag) claim(key string) bool {
	if b.written[key] {
		return false
	}
	b.written[key] = true
	return true
}

// SetPrice writes the price entry once. Returns false on a repeat write.
func (b *ResultBag) SetPrice(r PriceResult) bool {
	if !b.claim("price") {
		return false
	}
	b.Price = &r
	return true
}

// SetTargetedNews writes the targeted news entry once.
func (b *ResultBag) SetTargetedNews(articles []models.NewsArticle) bool {
	if !b.claim("targetedNews") {
		return false
	}
	b.TargetedNews = articles
	return true
}

// SetGeneralNews writes the general news entry once.
func (b *ResultBag) SetGeneralNews(articles []models.NewsArticle) bool {
	if !b.claim("generalNews") {
		return false
	}
	b.GeneralNews = articles
	return true
}

// SetSentiment writes the sentiment entry once.
func (b *ResultBag) SetSentiment(results []models.SentimentResult) bool {
	if !b.claim("sentiment") {
		return false
	}
	b.Sentiment = results
	return true
}

// SetAdvice writes the advice entry once.
func (b *ResultBag) SetAdvice(advice string) bool {
	if !b.claim("advice") {
		return false
	}
	b.Advice = advice
	return true
}

// News returns the article set sentiment analysis should read: targeted
// news when present, general news otherwise.
func (b *ResultBag) News() []models.NewsArticle {
	if len(b.TargetedNews) > 0 {
		return b.TargetedNews
	}
	return b.GeneralNews
}

func (b *ResultBag) logf(format string, args ...any) {
	b.Log = append(b.Log, fmt.Sprintf(format, args...))
}

// --- Collaborator interfaces ---

// PriceGetter fetches a spot quote.
type PriceGetter interface {
	GetQuote(ctx context.Context, symbol string, class models.AssetClass) (*models.Quote, error)
}

// NewsGetter fetches general and targeted news. Failures yield empty
// lists, never errors.
type NewsGetter interface {
	General(ctx context.Context) []models.NewsArticle
	Targeted(ctx context.Context, query string) []models.NewsArticle
}

// SentimentService analyzes article batches and generates advice text.
type SentimentService interface {
	AnalyzeBatch(ctx context.Context, articles []models.NewsArticle) []models.SentimentResult
	GenerateAdvice(ctx context.Context, marketContext string) (string, error)
}

// Executor runs action plans strictly in order. Every collaborator
// failure is captured at the action boundary and recorded in the bag;
// subsequent actions always run.
type Executor struct {
	prices    PriceGetter
	news      NewsGetter
	sentiment SentimentService
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(prices PriceGetter, news NewsGetter, sentiment SentimentService) *Executor {
	return &Executor{prices: prices, news: news, sentiment: sentiment}
}

// Execute runs the plan and returns the accumulated bag. It never
// returns an error; the bag and its log carry all failure detail.
func (e *Executor) Execute(ctx context.Context, plan ActionPlan) *ResultBag {
	bag := NewResultBag()
	log := logger.WithComponent("executor")

	for _, action := range plan.Actions {
		log.Debugf("виконується дія: %s", action.Describe())
		switch action.Kind {
		case ActionGetPrice:
			e.runGetPrice(ctx, bag, action)
		case ActionGetNewsGeneral:
			bag.SetGeneralNews(e.news.General(ctx))
			bag.logf("загальні новини: %d", len(bag.GeneralNews))
		case ActionGetNewsTargeted:
			bag.SetTargetedNews(e.news.Targeted(ctx, action.Query))
			bag.logf("новини про %s: %d", action.Query, len(bag.TargetedNews))
		case ActionAnalyzeSentiment:
			e.runAnalyzeSentiment(ctx, bag)
		case ActionGenerateAdvice:
			e.runGenerateAdvice(ctx, bag, action)
		default:
			log.Warnf("unknown action kind %q", action.Kind)
			bag.logf("невідома дія %s пропущена", action.Kind)
		}
	}
	return bag
}

func (e *Executor) runGetPrice(ctx context.Context, bag *ResultBag, action Action) {
	class := nlu.ClassifySymbol(action.Symbol)
	quote, err := e.prices.GetQuote(ctx, action.Symbol, class)
	if err != nil {
		logger.WithComponent("executor").WithError(err).Warnf("price fetch for %s failed", action.Symbol)
		bag.SetPrice(PriceResult{Err: err.Error()})
		bag.logf("ціна %s: помилка (%s)", action.Symbol, err)
		return
	}
	bag.SetPrice(PriceResult{Quote: quote})
	bag.logf("ціна %s: $%s", action.Symbol, quote.Price.StringFixed(2))
}

func (e *Executor) runAnalyzeSentiment(ctx context.Context, bag *ResultBag) {
	articles := bag.News()
	if len(articles) == 0 {
		bag.logf("тональність: немає новин для аналізу")
		return
	}
	results := e.sentiment.AnalyzeBatch(ctx, articles)
	bag.SetSentiment(results)
	bag.logf("тональність: проаналізовано %d новин", len(results))
}

func (e *Executor) runGenerateAdvice(ctx context.Context, bag *ResultBag, action Action) {
	advice, err := e.sentiment.GenerateAdvice(ctx, buildMarketContext(bag, action.Context))
	if err != nil {
		logger.WithComponent("executor").WithError(err).Warn("advice generation failed")
		bag.SetAdvice("Не вдалося згенерувати поради. Спробуйте пізніше.")
		bag.logf("поради: помилка (%s)", err)
		return
	}
	bag.SetAdvice(advice)
	bag.logf("поради: згенеровано")
}

// buildMarketContext summarizes whatever the bag has collected so far
// for the advice prompt.
func buildMarketContext(bag *ResultBag, context string) string {
	var b strings.Builder
	b.WriteString("Контекст ринку (" + context + "):\n")

	if bag.Price != nil && !bag.Price.Failed() {
		fmt.Fprintf(&b, "- Поточна ціна %s: $%s\n", bag.Price.Quote.Symbol, bag.Price.Quote.Price.StringFixed(2))
	}

	if len(bag.Sentiment) > 0 {
		tally := models.Tally(bag.Sentiment)
		fmt.Fprintf(&b, "- Позитивних новин: %d\n", tally.Bullish)
		fmt.Fprintf(&b, "- Негативних новин: %d\n", tally.Bearish)
		fmt.Fprintf(&b, "- Загалом новин: %d\n", tally.Total())
	}

	if headlines := bag.News(); len(headlines) > 0 {
		titles := make([]string, 0, 2)
		for _, a := range headlines {
			titles = append(titles, a.Title)
			if len(titles) == 2 {
				break
			}
		}
		fmt.Fprintf(&b, "- Ключові теми: %s\n", strings.Join(titles, ", "))
	}

	return b.String()
}
