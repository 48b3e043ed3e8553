// Package config handles configuration loading for Marketlyst.
// It supports YAML config files with environment variable overrides
// and an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Market   MarketConfig   `mapstructure:"market"   yaml:"market"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	Agent    AgentConfig    `mapstructure:"agent"    yaml:"agent"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	OpenAIKey   string  `mapstructure:"openai_key"  yaml:"openai_key"`
	BaseURL     string  `mapstructure:"base_url"    yaml:"base_url"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// MarketConfig holds market data provider settings.
type MarketConfig struct {
	TwelveDataKey string `mapstructure:"twelvedata_key" yaml:"twelvedata_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
}

// NewsConfig holds news provider settings.
type NewsConfig struct {
	NewsDataKey string `mapstructure:"newsdata_key" yaml:"newsdata_key"`
	FinageKey   string `mapstructure:"finage_key"   yaml:"finage_key"`
	CacheTTL    int    `mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds
}

// AgentConfig holds pipeline tuning knobs.
type AgentConfig struct {
	RequestTimeoutSec    int `mapstructure:"request_timeout_sec"   yaml:"request_timeout_sec"`
	MaxNewsAnalyzed      int `mapstructure:"max_news_analyzed"     yaml:"max_news_analyzed"`
	SentimentConcurrency int `mapstructure:"sentiment_concurrency" yaml:"sentiment_concurrency"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
	File   string `mapstructure:"file"   yaml:"file"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketlyst/config.yaml (home directory)
//  3. /etc/marketlyst/config.yaml (system)
//
// A .env file in the working directory is loaded first if present.
// Environment variables override config file values.
// Format: MARKETLYST_<SECTION>_<KEY>, e.g., MARKETLYST_LLM_OPENAI_KEY
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketlyst"))
	v.AddConfigPath("/etc/marketlyst")

	v.SetEnvPrefix("MARKETLYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("MARKETLYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate reports missing credentials for the subsystems that need them.
// Only the LLM key is strictly required; market and news providers degrade
// to fallbacks when their keys are absent.
func (c *Config) Validate() error {
	if c.LLM.OpenAIKey == "" {
		return fmt.Errorf("llm.openai_key is required (set MARKETLYST_LLM_OPENAI_KEY)")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)

	// Market data defaults
	v.SetDefault("market.timeout_sec", 10)

	// News defaults
	v.SetDefault("news.cache_ttl", 300) // 5 minutes

	// Agent defaults
	v.SetDefault("agent.request_timeout_sec", 60)
	v.SetDefault("agent.max_news_analyzed", 3)
	v.SetDefault("agent.sentiment_concurrency", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("MARKETLYST_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("MARKETLYST_MARKET_TWELVEDATA_KEY"); key != "" {
		cfg.Market.TwelveDataKey = key
	}
	if key := os.Getenv("MARKETLYST_NEWS_NEWSDATA_KEY"); key != "" {
		cfg.News.NewsDataKey = key
	}
	if key := os.Getenv("MARKETLYST_NEWS_FINAGE_KEY"); key != "" {
		cfg.News.FinageKey = key
	}
	if tok := os.Getenv("MARKETLYST_TELEGRAM_TOKEN"); tok != "" {
		cfg.Telegram.Token = tok
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
