// Package agent contains the request pipeline: a keyword-driven action
// planner, a sequential executor with per-action failure isolation, and
// the response formatter. One Agent instance serves all front ends.
package agent

import (
	"fmt"
	"strings"
)

// ActionKind discriminates the closed set of plan actions.
type ActionKind string

const (
	ActionGetPrice         ActionKind = "get_price"
	ActionGetNewsGeneral   ActionKind = "get_news_general"
	ActionGetNewsTargeted  ActionKind = "get_news_targeted"
	ActionAnalyzeSentiment ActionKind = "analyze_sentiment"
	ActionGenerateAdvice   ActionKind = "generate_advice"
)

// Action is one declarative unit of work. The payload field used depends
// on Kind: Symbol for GetPrice, Query for GetNewsTargeted, Context for
// GenerateAdvice.
type Action struct {
	Kind    ActionKind
	Symbol  string
	Query   string
	Context string
}

// Describe renders a human-readable action description for the
// execution log.
func (a Action) Describe() string {
	switch a.Kind {
	case ActionGetPrice:
		return fmt.Sprintf("отримати ціну %s", a.Symbol)
	case ActionGetNewsGeneral:
		return "отримати загальні новини"
	case ActionGetNewsTargeted:
		return fmt.Sprintf("отримати новини про %s", a.Query)
	case ActionAnalyzeSentiment:
		return "проаналізувати тональність новин"
	case ActionGenerateAdvice:
		return fmt.Sprintf("згенерувати поради (%s)", a.Context)
	}
	return string(a.Kind)
}

// ActionPlan is an ordered action sequence with the routing rationale.
type ActionPlan struct {
	Actions   []Action
	Reasoning string
}

// IsEmpty reports whether no rule matched.
func (p ActionPlan) IsEmpty() bool { return len(p.Actions) == 0 }

// StripCurrencySuffix removes a trailing "USD" from a pair symbol so it
// works as a news search query (BTCUSD -> BTC).
func StripCurrencySuffix(symbol string) string {
	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, "USD") && len(upper) > 3 {
		return upper[:len(upper)-3]
	}
	return upper
}
