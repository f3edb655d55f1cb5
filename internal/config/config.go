// Package config handles configuration loading for TickerLens.
// It supports YAML config files, a local .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all TickerLens environment variables.
const EnvPrefix = "TICKERLENS"

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Share    ShareConfig    `mapstructure:"share"    yaml:"share"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Watch    WatchConfig    `mapstructure:"watch"    yaml:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds model backend credentials and the ordered candidate list.
type LLMConfig struct {
	GeminiKey   string            `mapstructure:"gemini_key"  yaml:"gemini_key"`
	GeminiURL   string            `mapstructure:"gemini_url"  yaml:"gemini_url"`
	OpenAIKey   string            `mapstructure:"openai_key"  yaml:"openai_key"`
	OpenAIURL   string            `mapstructure:"openai_url"  yaml:"openai_url"`
	Candidates  []CandidateConfig `mapstructure:"candidates"  yaml:"candidates"`
	Backoff     time.Duration     `mapstructure:"backoff"     yaml:"backoff"`
	Timeout     time.Duration     `mapstructure:"timeout"     yaml:"timeout"`
	Temperature float64           `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int               `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// CandidateConfig names one entry of the model fallback chain.
type CandidateConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "gemini" or "openai"
	Model    string `mapstructure:"model"    yaml:"model"`
}

// DataConfig holds market data provider settings.
type DataConfig struct {
	YahooBaseURL string        `mapstructure:"yahoo_base_url" yaml:"yahoo_base_url"`
	HistoryRange string        `mapstructure:"history_range"  yaml:"history_range"` // e.g. "3mo"
	Timeout      time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

// NewsConfig holds news provider settings.
type NewsConfig struct {
	Provider       string `mapstructure:"provider"         yaml:"provider"` // "finnhub", "rss" or "none"
	FinnhubKey     string `mapstructure:"finnhub_key"      yaml:"finnhub_key"`
	FinnhubBaseURL string `mapstructure:"finnhub_base_url" yaml:"finnhub_base_url"`
	RSSURL         string `mapstructure:"rss_url"          yaml:"rss_url"` // %s is replaced by the symbol
	LookbackDays   int    `mapstructure:"lookback_days"    yaml:"lookback_days"`
	MaxItems       int    `mapstructure:"max_items"        yaml:"max_items"`
}

// AnalysisConfig holds indicator and prompt settings.
type AnalysisConfig struct {
	RSIPeriod       int    `mapstructure:"rsi_period"       yaml:"rsi_period"`
	RSISmoothing    string `mapstructure:"rsi_smoothing"    yaml:"rsi_smoothing"` // "sma" or "wilder"
	Language        string `mapstructure:"language"         yaml:"language"`
	ConcurrentFetch bool   `mapstructure:"concurrent_fetch" yaml:"concurrent_fetch"`
}

// ShareConfig holds the base URL used for shareable links.
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// WatchConfig holds scheduled re-analysis settings.
type WatchConfig struct {
	Schedule       string   `mapstructure:"schedule"         yaml:"schedule"` // cron spec with seconds
	Symbols        []string `mapstructure:"symbols"          yaml:"symbols"`
	TelegramToken  string   `mapstructure:"telegram_token"   yaml:"telegram_token"`
	TelegramChatID int64    `mapstructure:"telegram_chat_id" yaml:"telegram_chat_id"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"       yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"      yaml:"format"` // "console" or "json"
	File       string `mapstructure:"file"        yaml:"file"`
	MaxSize    int    `mapstructure:"max_size"    yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     yaml:"max_age"` // days
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tickerlens/config.yaml (home directory)
//  3. /etc/tickerlens/config.yaml (system)
//
// A .env file in the working directory is loaded first and never overrides
// variables already set. Environment variables override config file values.
// Format: TICKERLENS_<SECTION>_<KEY>, e.g., TICKERLENS_LLM_GEMINI_KEY
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tickerlens"))
	v.AddConfigPath("/etc/tickerlens")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the configuration built from defaults and the environment only.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.candidates", []map[string]any{
		{"provider": "gemini", "model": "gemini-3-pro-preview"},
		{"provider": "gemini", "model": "gemini-2.5-flash"},
	})
	v.SetDefault("llm.backoff", time.Second)
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)

	// Market data defaults
	v.SetDefault("data.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("data.history_range", "3mo")
	v.SetDefault("data.timeout", 30*time.Second)

	// News defaults
	v.SetDefault("news.provider", "finnhub")
	v.SetDefault("news.finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("news.rss_url", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US")
	v.SetDefault("news.lookback_days", 5)
	v.SetDefault("news.max_items", 3)

	// Analysis defaults
	v.SetDefault("analysis.rsi_period", 14)
	v.SetDefault("analysis.rsi_smoothing", "sma")
	v.SetDefault("analysis.language", "Traditional Chinese")
	v.SetDefault("analysis.concurrent_fetch", false)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Watch defaults: top of every hour on weekdays
	v.SetDefault("watch.schedule", "0 0 * * * 1-5")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 14)
}

// Credential variables. The short names are accepted for compatibility with
// the usual provider tooling; the prefixed names win when both are set.
var (
	geminiKeyEnv  = []string{"TICKERLENS_LLM_GEMINI_KEY", "GEMINI_API_KEY"}
	openAIKeyEnv  = []string{"TICKERLENS_LLM_OPENAI_KEY", "OPENAI_API_KEY"}
	finnhubKeyEnv = []string{"TICKERLENS_NEWS_FINNHUB_KEY", "FINNHUB_API_KEY"}
	telegramEnv   = []string{"TICKERLENS_WATCH_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"}
	modelsEnv     = "TICKERLENS_LLM_MODELS"
	watchListEnv  = "TICKERLENS_WATCH_SYMBOLS"
)

// overrideFromEnv explicitly reads sensitive keys and list values from environment variables.
func overrideFromEnv(cfg *Config) error {
	if key := firstEnv(geminiKeyEnv); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := firstEnv(openAIKeyEnv); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := firstEnv(finnhubKeyEnv); key != "" {
		cfg.News.FinnhubKey = key
	}
	if token := firstEnv(telegramEnv); token != "" {
		cfg.Watch.TelegramToken = token
	}
	if spec := os.Getenv(modelsEnv); spec != "" {
		candidates, err := ParseCandidates(spec)
		if err != nil {
			return fmt.Errorf("%s: %w", modelsEnv, err)
		}
		cfg.LLM.Candidates = candidates
	}
	if list := os.Getenv(watchListEnv); list != "" {
		cfg.Watch.Symbols = splitList(list)
	}
	return nil
}

// ParseCandidates parses "provider:model,provider:model". A bare model name
// is assumed to be a Gemini model.
func ParseCandidates(spec string) ([]CandidateConfig, error) {
	var out []CandidateConfig
	for _, item := range splitList(spec) {
		provider, model, found := strings.Cut(item, ":")
		if !found {
			provider, model = "gemini", item
		}
		provider = strings.ToLower(strings.TrimSpace(provider))
		model = strings.TrimSpace(model)
		if model == "" {
			return nil, fmt.Errorf("candidate %q has no model", item)
		}
		out = append(out, CandidateConfig{Provider: provider, Model: model})
	}
	if len(out) == 0 {
		return nil, errors.New("no model candidates")
	}
	return out, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.LLM.Candidates) == 0 {
		errs = append(errs, errors.New("llm.candidates: at least one model is required"))
	}
	for i, cand := range c.LLM.Candidates {
		switch cand.Provider {
		case "gemini", "openai":
		default:
			errs = append(errs, fmt.Errorf("llm.candidates[%d]: unknown provider %q", i, cand.Provider))
		}
		if cand.Model == "" {
			errs = append(errs, fmt.Errorf("llm.candidates[%d]: model is empty", i))
		}
	}
	if c.LLM.Backoff < 0 {
		errs = append(errs, errors.New("llm.backoff: must not be negative"))
	}
	if c.Analysis.RSIPeriod < 2 {
		errs = append(errs, fmt.Errorf("analysis.rsi_period: %d is too short", c.Analysis.RSIPeriod))
	}
	switch c.Analysis.RSISmoothing {
	case "sma", "wilder":
	default:
		errs = append(errs, fmt.Errorf("analysis.rsi_smoothing: unknown method %q", c.Analysis.RSISmoothing))
	}
	switch c.News.Provider {
	case "finnhub", "rss", "none":
	default:
		errs = append(errs, fmt.Errorf("news.provider: unknown provider %q", c.News.Provider))
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the API server listens on.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// loadDotEnv loads ./.env when present. Existing variables are never overridden.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
