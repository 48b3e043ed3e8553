// Package bot is the Telegram front end. It long-polls for updates,
// routes commands, runs plain messages through the agent pipeline, and
// keeps per-intent request statistics.
package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/seenimoa/marketlyst/internal/agent"
	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/internal/nlu"
)

// maxMessageLength is Telegram's message size limit.
const maxMessageLength = 4096

// intentEmojis decorate the /stats breakdown.
var intentEmojis = map[nlu.Intent]string{
	nlu.IntentAnalyzeNews:      "📊",
	nlu.IntentGetPrice:         "💰",
	nlu.IntentInvestmentAdvice: "📈",
	nlu.IntentGeneralChat:      "💬",
	nlu.IntentFallback:         "❓",
}

const welcomeText = `🤖 **Вітаю! Я Marketlyst**

Можу допомогти з:
📊 Аналізом ринкових новин
💰 Цінами акцій та криптовалют
📈 Інвестиційними порадами

**Приклади запитів:**
• "Що там на ринку?"
• "Ціна Apple"
• "Куди вкладати гроші?"
• "Скільки коштує Bitcoin?"

Просто напишіть ваш запит!

/help - допомога
/stats - статистика`

const helpText = `ℹ️ **Довідка Marketlyst**

**Типи запитів:**
📊 **Аналіз новин:** "ринок", "новини", "ситуація"
💰 **Ціни:** "ціна Apple", "скільки TSLA", "Bitcoin"
📈 **Поради:** "куди вкладати", "що купити", "інвестиції"
💬 **Спілкування:** "привіт", "дякую", "як справи"

**Підтримувані активи:**
• Акції: AAPL, TSLA, GOOGL, MSFT, AMZN, META...
• Криптовалюти: Bitcoin, Ethereum...
• Можна писати як тикерами, так і назвами

**Команди:**
/start - почати роботу
/help - ця довідка
/stats - статистика запитів`

// Stats tracks request counts per intent.
type Stats struct {
	mu       sync.Mutex
	total    int
	byIntent map[nlu.Intent]int
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{byIntent: make(map[nlu.Intent]int)}
}

// Record counts one handled request.
func (s *Stats) Record(intent nlu.Intent) {
	s.mu.Lock()
	s.total++
	s.byIntent[intent]++
	s.mu.Unlock()
}

// Render formats the statistics report.
func (s *Stats) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == 0 {
		return "📊 Поки що запитів не було."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Статистика запитів:**\n\nЗагальна кількість: %d\n\n**По типах:**\n", s.total)

	intents := make([]nlu.Intent, 0, len(s.byIntent))
	for intent := range s.byIntent {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool { return intents[i] < intents[j] })

	for _, intent := range intents {
		count := s.byIntent[intent]
		emoji := intentEmojis[intent]
		if emoji == "" {
			emoji = "❓"
		}
		pct := float64(count) / float64(s.total) * 100
		fmt.Fprintf(&b, "%s %s: %d (%.1f%%)\n", emoji, intent, count, pct)
	}
	return b.String()
}

// Bot is the Telegram long-polling front end.
type Bot struct {
	api   *tgbotapi.BotAPI
	agent *agent.Agent
	stats *Stats
}

// New creates a bot over the given token.
func New(token string, ag *agent.Agent, debug bool) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	api.Debug = debug

	return &Bot{api: api, agent: ag, stats: NewStats()}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log := logger.WithComponent("bot")
	log.Infof("telegram bot started as @%s", b.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.WithComponent("bot")

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.send(msg.Chat.ID, welcomeText)
		case "help":
			b.send(msg.Chat.ID, helpText)
		case "stats":
			b.send(msg.Chat.ID, b.stats.Render())
		default:
			b.send(msg.Chat.ID, "Невідома команда. Спробуйте /help.")
		}
		return
	}

	reply := b.agent.Handle(ctx, msg.Text)
	b.stats.Record(reply.Intent)

	for i, part := range SplitMessage(reply.Text, maxMessageLength) {
		if i > 0 {
			part = fmt.Sprintf("📄 **Частина %d:**\n\n%s", i+1, part)
		}
		b.send(msg.Chat.ID, part)
	}

	log.WithField("intent", reply.Intent).Infof("handled message from chat %d", msg.Chat.ID)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		logger.WithComponent("bot").WithError(err).Error("send message failed")
	}
}

// SplitMessage breaks text into Telegram-sized chunks, preferring line
// boundaries. A single overlong line is split mid-line.
func SplitMessage(text string, maxLen int) []string {
	if len([]rune(text)) <= maxLen {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > maxLen {
			if currentLen > 0 {
				parts = append(parts, strings.TrimRight(current.String(), "\n"))
				current.Reset()
				currentLen = 0
			}
			parts = append(parts, string(runes[:maxLen]))
			runes = runes[maxLen:]
		}
		if currentLen > 0 && currentLen+len(runes)+1 > maxLen {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
		current.WriteString(string(runes))
		current.WriteString("\n")
		currentLen += len(runes) + 1
	}
	if currentLen > 0 {
		parts = append(parts, strings.TrimRight(current.String(), "\n"))
	}
	return parts
}
