// Package models defines the shared data types exchanged between the
// NLU layer, the planner/executor pipeline, the data sources, and the
// transport front ends.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass identifies which price provider handles a symbol.
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
	AssetForex  AssetClass = "forex"
)

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// NewsArticle is a single news item from any of the configured sources.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// FullText returns the text blob used for sentiment analysis.
func (a NewsArticle) FullText() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + ". " + a.Description
}

// Sentiment labels returned by the sentiment generator.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// SentimentResult is one analyzed news item.
type SentimentResult struct {
	Sentiment   string  `json:"sentiment"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// IsBullish reports whether the result is labeled bullish.
func (s SentimentResult) IsBullish() bool { return s.Sentiment == SentimentBullish }

// IsBearish reports whether the result is labeled bearish.
func (s SentimentResult) IsBearish() bool { return s.Sentiment == SentimentBearish }

// SentimentTally aggregates a batch of sentiment results.
type SentimentTally struct {
	Bullish int
	Bearish int
	Neutral int
}

// Tally counts bullish/bearish/neutral labels in a batch.
func Tally(results []SentimentResult) SentimentTally {
	var t SentimentTally
	for _, r := range results {
		switch {
		case r.IsBullish():
			t.Bullish++
		case r.IsBearish():
			t.Bearish++
		default:
			t.Neutral++
		}
	}
	return t
}

// Total returns the number of tallied results.
func (t SentimentTally) Total() int { return t.Bullish + t.Bearish + t.Neutral }

// ── Transport envelope ──

// Message is one turn of a conversation in the /run envelope.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for POST /run.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse is the response body for POST /run.
type ChatResponse struct {
	Message Message `json:"message"`
}

// LastUserText returns the content of the most recent message, or "".
func (r ChatRequest) LastUserText() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}
