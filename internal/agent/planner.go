package agent

import (
	"strings"

	"github.com/seenimoa/marketlyst/internal/nlu"
)

// Keyword groups for plan routing. Checked in a fixed priority order;
// the first matching group determines the whole plan. Ukrainian entries
// are stems so inflected forms match too (ринок/ринку -> "ринк").
var (
	priceWords      = []string{"ціна", "ціни", "скільки", "коштує", "price", "cost", "how much"}
	investmentWords = []string{"варто", "купити", "купляти", "вкладати", "інвестувати", "buy", "invest", "worth"}
	situationWords  = []string{"новин", "що", "ситуаці", "стан", "news", "situation", "what"}
	marketWords     = []string{"ринк", "ситуаці", "новин", "market", "news"}
)

// Planner maps (text, entity info) to an ordered action plan. It is a
// pure dispatch table: no network calls, no hidden state, identical
// input always yields an identical plan.
type Planner struct{}

// NewPlanner creates a planner.
func NewPlanner() *Planner { return &Planner{} }

// Plan builds the action sequence for one utterance.
func (p *Planner) Plan(text string, info nlu.EntityInfo) ActionPlan {
	lower := strings.ToLower(text)

	if info.IsFinancial && info.Entity != nil {
		return p.planForEntity(lower, info.Entity)
	}
	return p.planGeneral(lower)
}

// planForEntity routes queries about a specific asset. Priority:
// price > investment > situational; an unmatched query gets the
// situational plan as the default.
func (p *Planner) planForEntity(lower string, entity *nlu.Entity) ActionPlan {
	newsQuery := StripCurrencySuffix(entity.Symbol)

	switch {
	case containsAny(lower, priceWords):
		return ActionPlan{
			Actions:   []Action{{Kind: ActionGetPrice, Symbol: entity.Symbol}},
			Reasoning: "запит ціни активу",
		}
	case containsAny(lower, investmentWords):
		return ActionPlan{
			Actions: []Action{
				{Kind: ActionGetPrice, Symbol: entity.Symbol},
				{Kind: ActionGetNewsTargeted, Query: newsQuery},
				{Kind: ActionGenerateAdvice, Context: "аналіз активу " + entity.Symbol},
			},
			Reasoning: "запит інвестиційної поради щодо активу",
		}
	case containsAny(lower, situationWords):
		return ActionPlan{
			Actions: []Action{
				{Kind: ActionGetPrice, Symbol: entity.Symbol},
				{Kind: ActionGetNewsTargeted, Query: newsQuery},
			},
			Reasoning: "запит ситуації навколо активу",
		}
	}

	// No keyword matched; treat as a situational query.
	return ActionPlan{
		Actions: []Action{
			{Kind: ActionGetPrice, Symbol: entity.Symbol},
			{Kind: ActionGetNewsTargeted, Query: newsQuery},
		},
		Reasoning: "загальний запит про актив",
	}
}

// planGeneral routes queries with no resolved asset.
func (p *Planner) planGeneral(lower string) ActionPlan {
	switch {
	case containsAny(lower, marketWords):
		return ActionPlan{
			Actions: []Action{
				{Kind: ActionGetNewsGeneral},
				{Kind: ActionAnalyzeSentiment},
			},
			Reasoning: "загальний огляд ринку",
		}
	case containsAny(lower, investmentWords):
		return ActionPlan{
			Actions: []Action{
				{Kind: ActionGetNewsGeneral},
				{Kind: ActionAnalyzeSentiment},
				{Kind: ActionGenerateAdvice, Context: "загальні інвестиційні поради"},
			},
			Reasoning: "загальний інвестиційний запит",
		}
	}

	return ActionPlan{Reasoning: "жодне правило не спрацювало"}
}

// containsAny reports whether the text contains any of the keywords.
func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
