// Package nlu resolves raw user text into financial entities and coarse
// intents. Resolution is dictionary-first: static alias and category maps
// handle the common cases, a regex catches bare tickers, and an LLM call
// is the last resort.
package nlu

import "strings"

// AssetClass category lists. A symbol's class is whichever list contains
// it; symbols absent from all lists are classified heuristically.
var (
	stockSymbols = map[string]bool{
		"AAPL": true, "TSLA": true, "GOOGL": true, "MSFT": true,
		"AMZN": true, "META": true, "NVDA": true, "NFLX": true,
		"AMD": true, "INTC": true, "IBM": true, "ORCL": true,
	}

	cryptoSymbols = map[string]bool{
		"BTCUSD": true, "ETHUSD": true, "SOLUSD": true, "XRPUSD": true,
		"BTC": true, "ETH": true, "SOL": true, "XRP": true, "DOGE": true,
	}

	forexSymbols = map[string]bool{
		"EURUSD": true, "GBPUSD": true, "USDJPY": true, "USDCHF": true,
		"AUDUSD": true, "USDCAD": true,
	}
)

// aliases maps lower-cased user-facing names (tickers, company names,
// Ukrainian transliterations) to canonical symbols. First containment
// match wins, so longer and more specific keys come first in iteration
// order via aliasOrder.
var aliases = map[string]string{
	// stocks
	"apple": "AAPL", "епл": "AAPL", "эпл": "AAPL", "aapl": "AAPL",
	"tesla": "TSLA", "тесла": "TSLA", "tsla": "TSLA",
	"google": "GOOGL", "гугл": "GOOGL", "alphabet": "GOOGL", "googl": "GOOGL",
	"microsoft": "MSFT", "майкрософт": "MSFT", "msft": "MSFT",
	"amazon": "AMZN", "амазон": "AMZN", "amzn": "AMZN",
	"meta": "META", "facebook": "META", "фейсбук": "META",
	"nvidia": "NVDA", "нвідіа": "NVDA", "nvda": "NVDA",
	"netflix": "NFLX", "нетфлікс": "NFLX",

	// crypto
	"bitcoin": "BTCUSD", "біткоїн": "BTCUSD", "біткоін": "BTCUSD", "btc": "BTCUSD",
	"ethereum": "ETHUSD", "ефіріум": "ETHUSD", "eth": "ETHUSD",
	"solana": "SOLUSD", "солана": "SOLUSD",

	// forex
	"євро": "EURUSD", "euro": "EURUSD", "eurusd": "EURUSD",
	"фунт": "GBPUSD", "gbpusd": "GBPUSD",
}

// aliasOrder fixes the scan order so containment matching is
// deterministic. Multi-character and unambiguous names go before short
// ticker fragments.
var aliasOrder = []string{
	"apple", "епл", "эпл", "aapl",
	"tesla", "тесла", "tsla",
	"google", "гугл", "alphabet", "googl",
	"microsoft", "майкрософт", "msft",
	"amazon", "амазон", "amzn",
	"facebook", "фейсбук", "meta",
	"nvidia", "нвідіа", "nvda",
	"netflix", "нетфлікс",
	"bitcoin", "біткоїн", "біткоін", "btc",
	"ethereum", "ефіріум", "eth",
	"solana", "солана",
	"eurusd", "євро", "euro",
	"gbpusd", "фунт",
}

// blocklist holds non-financial keywords that are common false-positive
// triggers (sports teams, weather, pets, recipes, movies). A hit means
// the query is out of domain, no further lookup.
var blocklist = []string{
	// sports
	"rays", "yankees", "lakers", "trade deadline", "nba", "nfl", "mlb",
	"футбол", "матч", "чемпіонат", "плей-оф",
	// weather
	"weather", "погода", "дощ", "сніг", "forecast tomorrow",
	// pets
	"puppy", "kitten", "цуценя", "кошеня", "собака", "кіт",
	// recipes
	"recipe", "рецепт", "приготувати", "борщ", "випічка",
	// movies
	"movie", "фільм", "серіал", "кіно", "netflix show",
}

// generalChatResponses maps greeting keywords to canned replies.
var generalChatResponses = map[string]string{
	"привіт":    "Вітаю! Я Marketlyst. Можу допомогти з аналізом ринку, цінами акцій або інвестиційними порадами. Що вас цікавить?",
	"дякую":     "Будь ласка! Завжди радий допомогти з фінансовими питаннями 😊",
	"як справи": "У мене все добре! Слідкую за ринками та готовий надати актуальну аналітику. Що бажаєте дізнатися?",
	"допомога":  "Я можу:\n🔍 Аналізувати ринкові новини\n💰 Показувати ціни акцій\n📈 Давати інвестиційні поради\n\nПросто напишіть що вас цікавить!",
}

// displayNames maps canonical symbols to human-readable asset names.
var displayNames = map[string]string{
	"AAPL":   "Apple",
	"TSLA":   "Tesla",
	"GOOGL":  "Google",
	"MSFT":   "Microsoft",
	"AMZN":   "Amazon",
	"META":   "Meta",
	"NVDA":   "NVIDIA",
	"NFLX":   "Netflix",
	"BTCUSD": "Bitcoin",
	"ETHUSD": "Ethereum",
	"SOLUSD": "Solana",
	"EURUSD": "EUR/USD",
	"GBPUSD": "GBP/USD",
}

// DisplayName returns a readable asset name for a canonical symbol,
// falling back to the symbol itself.
func DisplayName(symbol string) string {
	if name, ok := displayNames[symbol]; ok {
		return name
	}
	return symbol
}

// GeneralChatReply returns a canned reply when the text contains a
// greeting keyword. The boolean reports whether a keyword matched.
func GeneralChatReply(text string) (string, bool) {
	lower := strings.ToLower(text)
	for key, reply := range generalChatResponses {
		if strings.Contains(lower, key) {
			return reply, true
		}
	}
	return "", false
}

// containsBlocked reports whether the lower-cased text hits the
// non-financial blocklist.
func containsBlocked(lower string) bool {
	for _, word := range blocklist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
