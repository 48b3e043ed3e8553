package agent

import (
	"fmt"
	"strings"

	"github.com/seenimoa/marketlyst/internal/nlu"
	"github.com/seenimoa/marketlyst/pkg/models"
)

const disclaimer = "⚠️ **Дисклеймер:** Це не фінансова консультація. Завжди консультуйтеся з професіоналами."

// OutOfDomainMessage is the fixed reply for non-financial queries.
const OutOfDomainMessage = `Вибачте, здається ваш запит не стосується фінансів.

Я спеціалізуюся на:
🔍 Аналізі ринкових новин
💰 Цінах акцій та криптовалют
📈 Інвестиційних порадах

Спробуйте запитати щось на кшталт:
• "Ціна Apple"
• "Варто купляти Tesla?"
• "Що там на ринку?"`

// Formatter renders the final reply from the original utterance, the
// resolved entity, and the accumulated results. Dispatch mirrors the
// planner's keyword branching; missing bag keys degrade to omitted
// sections, never to error text.
type Formatter struct{}

// NewFormatter creates a formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Format renders the user-facing reply.
func (f *Formatter) Format(text string, info nlu.EntityInfo, bag *ResultBag) string {
	lower := strings.ToLower(text)

	if info.IsFinancial && info.Entity != nil {
		name := nlu.DisplayName(info.Entity.Symbol)
		switch {
		case containsAny(lower, priceWords):
			return f.formatPrice(name, bag.Price)
		case containsAny(lower, investmentWords):
			return f.formatInvestment(name, bag)
		case containsAny(lower, situationWords):
			return f.formatNews(name, bag)
		}
		return f.formatGeneralAsset(name, bag)
	}

	switch {
	case containsAny(lower, marketWords):
		return f.formatMarketOverview(bag)
	case containsAny(lower, investmentWords):
		return f.formatGeneralInvestment(bag)
	}
	return OutOfDomainMessage
}

func (f *Formatter) formatPrice(name string, price *PriceResult) string {
	if price == nil || price.Failed() {
		msg := fmt.Sprintf("❌ Не вдалося отримати ціну для %s.", name)
		if price != nil && price.Err != "" {
			msg += " " + price.Err
		}
		return msg
	}

	quote := price.Quote
	return strings.Join([]string{
		fmt.Sprintf("💰 **%s (%s): $%s**", name, quote.Symbol, quote.Price.StringFixed(2)),
		"⏰ Оновлено: щойно",
	}, "\n")
}

func (f *Formatter) formatInvestment(name string, bag *ResultBag) string {
	parts := []string{fmt.Sprintf("📊 **Аналіз %s**\n", name)}

	if bag.Price != nil && !bag.Price.Failed() {
		parts = append(parts, fmt.Sprintf("💰 Поточна ціна: $%s", bag.Price.Quote.Price.StringFixed(2)))
	}

	if len(bag.Sentiment) > 0 {
		tally := models.Tally(bag.Sentiment)
		switch {
		case tally.Bullish > tally.Bearish:
			parts = append(parts, "📈 Новини переважно позитивні")
		case tally.Bearish > tally.Bullish:
			parts = append(parts, "📉 Новини переважно негативні")
		default:
			parts = append(parts, "⚖️ Новини збалансовані")
		}
	}

	if bag.Advice != "" {
		parts = append(parts, "\n"+bag.Advice)
	}

	out := strings.Join(parts, "\n")
	if !strings.Contains(out, "не фінансова консультація") {
		out += "\n\n" + disclaimer
	}
	return out
}

func (f *Formatter) formatNews(name string, bag *ResultBag) string {
	parts := []string{fmt.Sprintf("📰 **Новини про %s**\n", name)}

	if bag.Price != nil && !bag.Price.Failed() {
		parts = append(parts, fmt.Sprintf("💰 Поточна ціна: $%s", bag.Price.Quote.Price.StringFixed(2)))
	}

	if news := bag.TargetedNews; len(news) > 0 {
		parts = append(parts, fmt.Sprintf("\n🔍 **Останні новини (%d):**", len(news)))
		for i, item := range news {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, truncateTitle(item.Title, 70)))
		}
	} else {
		parts = append(parts, "ℹ️ Актуальні новини не знайдені")
	}

	return strings.Join(parts, "\n")
}

func (f *Formatter) formatGeneralAsset(name string, bag *ResultBag) string {
	parts := []string{fmt.Sprintf("📋 **%s**\n", name)}

	if bag.Price != nil && !bag.Price.Failed() {
		parts = append(parts, fmt.Sprintf("💰 Ціна: $%s", bag.Price.Quote.Price.StringFixed(2)))
	}

	if news := bag.TargetedNews; len(news) > 0 {
		parts = append(parts, fmt.Sprintf("📰 Останні новини: %s", truncateTitle(news[0].Title, 80)))
	}

	return strings.Join(parts, "\n")
}

func (f *Formatter) formatMarketOverview(bag *ResultBag) string {
	parts := []string{"📊 **Ринкова ситуація**\n"}

	if len(bag.Sentiment) > 0 {
		tally := models.Tally(bag.Sentiment)
		total := tally.Total()
		switch {
		case tally.Bullish > tally.Bearish:
			parts = append(parts, fmt.Sprintf("📈 **Позитивний настрій** (%d/%d новин)", tally.Bullish, total))
			parts = append(parts, "Ринок схильний до зростання")
		case tally.Bearish > tally.Bullish:
			parts = append(parts, fmt.Sprintf("📉 **Негативний настрій** (%d/%d новин)", tally.Bearish, total))
			parts = append(parts, "Ринок під тиском")
		default:
			parts = append(parts, fmt.Sprintf("⚖️ **Нейтральний настрій** (%d новин)", total))
			parts = append(parts, "Ринок в очікуванні")
		}
	}

	if news := bag.GeneralNews; len(news) > 0 {
		parts = append(parts, "\n🔍 **Ключові новини:**")
		for i, item := range news {
			if i == 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, truncateTitle(item.Title, 60)))
		}
	}

	return strings.Join(parts, "\n")
}

func (f *Formatter) formatGeneralInvestment(bag *ResultBag) string {
	if bag.Advice != "" {
		return bag.Advice
	}

	return `📊 **Загальні інвестиційні поради**

💡 **Базові принципи:**
• Диверсифікуйте портфель між різними активами
• Інвестуйте довгостроково (від 1 року)
• Не вкладайте більше 5-10% в один актив

⚠️ **Ризики:**
• Ринки волатильні та непередбачувані
• Минулі результати не гарантують майбутніх

🔍 **Рекомендація:** Проаналізуйте конкретні активи для точніших порад.

**Дисклеймер:** Це не фінансова консультація.`
}

// truncateTitle shortens a headline to max runes with an ellipsis.
func truncateTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max]) + "..."
}
