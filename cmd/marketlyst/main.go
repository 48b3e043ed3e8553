// Marketlyst — conversational market analysis agent.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/marketlyst/api"
	"github.com/seenimoa/marketlyst/internal/agent"
	"github.com/seenimoa/marketlyst/internal/bot"
	"github.com/seenimoa/marketlyst/internal/config"
	"github.com/seenimoa/marketlyst/internal/datasource"
	"github.com/seenimoa/marketlyst/internal/llm"
	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/internal/nlu"
	"github.com/seenimoa/marketlyst/internal/sentiment"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketlyst",
	Short: "Marketlyst — conversational market analysis agent",
	Long: `Marketlyst is a Ukrainian-language market analysis agent.
It resolves companies and tickers from free-form chat, fetches prices
and news, runs LLM sentiment analysis, and answers over HTTP or
Telegram.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		if err := logger.Init(level, cfg.Logging.Format, cfg.Logging.File); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Wiring ---

// buildNewsAggregator assembles the news pipeline from configured keys.
// Sources without keys fail at request time and get skipped, so they
// are wired unconditionally.
func buildNewsAggregator() *datasource.NewsAggregator {
	newsData := datasource.NewNewsDataClient(cfg.News.NewsDataKey)
	finage := datasource.NewFinageClient(cfg.News.FinageKey)
	rss := datasource.NewRSSClient()

	return datasource.NewNewsAggregator(
		[]datasource.NewsSource{newsData, finage},
		newsData,
		rss,
		time.Duration(cfg.News.CacheTTL)*time.Second,
	)
}

// buildAgent wires the full pipeline: provider, resolver, classifier,
// data sources, sentiment, executor.
func buildAgent(news *datasource.NewsAggregator) (*agent.Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := llm.NewOpenAIProvider(cfg.LLM.OpenAIKey,
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	prices := datasource.NewTwelveDataClient(cfg.Market.TwelveDataKey,
		time.Duration(cfg.Market.TimeoutSec)*time.Second)

	analyzer := sentiment.NewAnalyzer(provider,
		sentiment.WithMaxItems(cfg.Agent.MaxNewsAnalyzed),
		sentiment.WithConcurrency(cfg.Agent.SentimentConcurrency),
	)

	executor := agent.NewExecutor(prices, news, analyzer)

	return agent.New(
		nlu.NewEntityResolver(provider),
		nlu.NewIntentClassifier(provider),
		executor,
		time.Duration(cfg.Agent.RequestTimeoutSec)*time.Second,
	), nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Marketlyst %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Ask Command (one-shot query) ---

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Run a single query through the agent",
	Long: `Run one free-form query through the full pipeline and print the answer.

Examples:
  marketlyst ask "Ціна Apple"
  marketlyst ask "Що там на ринку?"
  marketlyst ask "Куди вкладати гроші?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ag, err := buildAgent(buildNewsAggregator())
		if err != nil {
			return err
		}
		reply := ag.Handle(cmd.Context(), args[0])
		fmt.Println(reply.Text)
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		news := buildNewsAggregator()
		ag, err := buildAgent(news)
		if err != nil {
			return err
		}
		srv := api.NewServer(cfg, ag, news)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting Marketlyst API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Bot Command (Telegram) ---

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ag, err := buildAgent(buildNewsAggregator())
		if err != nil {
			return err
		}
		b, err := bot.New(cfg.Telegram.Token, ag, cfg.Telegram.Debug)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("🤖 Starting Marketlyst Telegram bot")
		if err := b.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Print the current general market news digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles := buildNewsAggregator().General(cmd.Context())
		if len(articles) == 0 {
			fmt.Println("Новини недоступні.")
			return nil
		}
		for i, a := range articles {
			fmt.Printf("%d. %s [%s]\n", i+1, a.Title, a.Source)
			if a.Description != "" {
				fmt.Printf("   %s\n", a.Description)
			}
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Marketlyst — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Model:   %s\n", cfg.LLM.Model)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    News Cache:  %ds\n", cfg.News.CacheTTL)
		fmt.Printf("    Timeout:     %ds\n", cfg.Agent.RequestTimeoutSec)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
