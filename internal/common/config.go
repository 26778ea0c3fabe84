package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // exchange timezones on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// Missing essential data policies
const (
	MissingDataFallback = "fallback"
	MissingDataFail     = "fail"
)

// Config represents the application configuration
type Config struct {
	Environment            string          `toml:"environment" validate:"required"` // "development" or "production" - production enables the refresh scheduler
	OnMissingEssentialData string          `toml:"on_missing_essential_data" validate:"oneof=fallback fail"`
	Server                 ServerConfig    `toml:"server"`
	Storage                StorageConfig   `toml:"storage"`
	Logging                LoggingConfig   `toml:"logging"`
	Variables              KeysDirConfig   `toml:"variables"` // Variables directory (./variables.toml) for key/value pairs
	Cache                  CacheConfig     `toml:"cache"`
	Market                 MarketConfig    `toml:"market"`
	Scheduler              SchedulerConfig `toml:"scheduler"`
	Upstream               UpstreamConfig  `toml:"upstream"`
	EODHD                  ProviderConfig  `toml:"eodhd"`
	FRED                   ProviderConfig  `toml:"fred"`
	SERP                   ProviderConfig  `toml:"serp"`
	Gemini                 GeminiConfig    `toml:"gemini"`
	Claude                 ClaudeConfig    `toml:"claude"`
	News                   NewsConfig      `toml:"news"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=0,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir" validate:"required"` // Root for the dated news file store
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// KeysDirConfig points at the directory holding variables.toml
type KeysDirConfig struct {
	Dir string `toml:"dir"`
}

// CacheConfig holds TTLs in seconds, matching the ECONOMIC_DATA_TTL style env vars
type CacheConfig struct {
	EconomicTTL   int    `toml:"economic_ttl" validate:"min=0"`
	StockTTL      int    `toml:"stock_ttl" validate:"min=0"`
	AIContentTTL  int    `toml:"ai_content_ttl" validate:"min=0"`
	NewsTTL       int    `toml:"news_ttl" validate:"min=0"`
	SweepInterval string `toml:"sweep_interval"` // e.g. "5m"
}

// MarketConfig describes the exchange calendar used for trading-hours gating
type MarketConfig struct {
	Timezone  string `toml:"timezone"`
	OpenHour  int    `toml:"open_hour" validate:"min=0,max=23"`
	CloseHour int    `toml:"close_hour" validate:"min=0,max=23"`
}

type SchedulerConfig struct {
	EconomicInterval string `toml:"economic_interval"` // e.g. "6h"
	MarketInterval   string `toml:"market_interval"`   // e.g. "5m"
}

// UpstreamConfig applies to every source call made by the aggregator
type UpstreamConfig struct {
	Timeout string `toml:"timeout"` // e.g. "10s"
}

// ProviderConfig is shared by the HTTP data providers
type ProviderConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // requests per second
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type NewsConfig struct {
	MaxAgeDays     int      `toml:"max_age_days" validate:"min=1"`
	MinArticles    int      `toml:"min_articles" validate:"min=0"`
	ArticleLimit   int      `toml:"article_limit" validate:"min=1"`
	SnippetCount   int      `toml:"snippet_count" validate:"min=0"`
	MacroQueries   []string `toml:"macro_queries"`
	SymbolVariants []string `toml:"symbol_variants"` // "%s" is replaced by the symbol
	BroadQuery     string   `toml:"broad_query"`
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability
// Only user-facing settings should be exposed in marketpulse.toml
func NewDefaultConfig() *Config {
	return &Config{
		Environment:            "development",
		OnMissingEssentialData: MissingDataFallback,
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Variables: KeysDirConfig{
			Dir: ".",
		},
		Cache: CacheConfig{
			EconomicTTL:   86400,
			StockTTL:      300,
			AIContentTTL:  43200,
			NewsTTL:       21600,
			SweepInterval: "5m",
		},
		Market: MarketConfig{
			Timezone:  "America/New_York",
			OpenHour:  9,
			CloseHour: 16,
		},
		Scheduler: SchedulerConfig{
			EconomicInterval: "6h",
			MarketInterval:   "5m",
		},
		Upstream: UpstreamConfig{
			Timeout: "10s",
		},
		EODHD: ProviderConfig{
			BaseURL:   "https://eodhd.com/api",
			RateLimit: 10,
		},
		FRED: ProviderConfig{
			BaseURL:   "https://api.stlouisfed.org/fred",
			RateLimit: 2,
		},
		SERP: ProviderConfig{
			BaseURL:   "https://serpapi.com",
			RateLimit: 2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "15s",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "15s",
			MaxTokens:   2048,
			Temperature: 0.3,
		},
		News: NewsConfig{
			MaxAgeDays:   30,
			MinArticles:  2,
			ArticleLimit: 20,
			SnippetCount: 5,
			MacroQueries: []string{
				"stock market news",
				"federal reserve economy",
			},
			SymbolVariants: []string{
				"%s stock news",
				"%s stock",
				"%s earnings",
			},
			BroadQuery: "%s company news",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETPULSE_ENV"); env != "" {
		config.Environment = env
	}
	if v := os.Getenv("IS_PRODUCTION"); v != "" {
		if isProd, err := strconv.ParseBool(v); err == nil {
			if isProd {
				config.Environment = "production"
			} else if config.IsProduction() {
				config.Environment = "development"
			}
		}
	}

	if port := os.Getenv("MARKETPULSE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dir := os.Getenv("MARKETPULSE_DATA_DIR"); dir != "" {
		config.Storage.DataDir = dir
	}
	if policy := os.Getenv("ON_MISSING_ESSENTIAL_DATA"); policy != "" {
		config.OnMissingEssentialData = strings.ToLower(strings.TrimSpace(policy))
	}

	// Provider credentials
	if key := os.Getenv("PRIMARY_AI_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("SECONDARY_AI_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("ECONOMIC_PROVIDER_KEY"); key != "" {
		config.FRED.APIKey = key
	}
	if key := os.Getenv("QUOTE_PROVIDER_KEY"); key != "" {
		config.EODHD.APIKey = key
	}
	if key := os.Getenv("NEWS_PROVIDER_KEY"); key != "" {
		config.SERP.APIKey = key
	}

	// TTLs in seconds
	envSeconds("ECONOMIC_DATA_TTL", &config.Cache.EconomicTTL)
	envSeconds("STOCK_DATA_TTL", &config.Cache.StockTTL)
	envSeconds("AI_CONTENT_TTL", &config.Cache.AIContentTTL)
	envSeconds("NEWS_DATA_TTL", &config.Cache.NewsTTL)
}

func envSeconds(name string, target *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			*target = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Market.OpenHour > c.Market.CloseHour {
		return fmt.Errorf("invalid configuration: market open_hour %d is after close_hour %d", c.Market.OpenHour, c.Market.CloseHour)
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: market timezone %q: %w", c.Market.Timezone, err)
	}
	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → KV store → config fallback → error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"PRIMARY_AI_KEY", "GEMINI_API_KEY"},
		"claude_api_key": {"SECONDARY_AI_KEY", "ANTHROPIC_API_KEY"},
		"fred_api_key":   {"ECONOMIC_PROVIDER_KEY"},
		"eodhd_api_key":  {"QUOTE_PROVIDER_KEY"},
		"serp_api_key":   {"NEWS_PROVIDER_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (file-based variables)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// FailOnMissingEssentialData reports whether aggregates should error instead of serving static data
func (c *Config) FailOnMissingEssentialData() bool {
	return c.OnMissingEssentialData == MissingDataFail
}

// Location returns the exchange timezone, falling back to UTC
func (c *MarketConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetSweepInterval parses the sweep interval, defaulting to 5 minutes
func (c *CacheConfig) GetSweepInterval() time.Duration {
	return parseDurationOr(c.SweepInterval, 5*time.Minute)
}

// GetEconomicInterval parses the economic refresh interval, defaulting to 6 hours
func (c *SchedulerConfig) GetEconomicInterval() time.Duration {
	return parseDurationOr(c.EconomicInterval, 6*time.Hour)
}

// GetMarketInterval parses the market refresh interval, defaulting to 5 minutes
func (c *SchedulerConfig) GetMarketInterval() time.Duration {
	return parseDurationOr(c.MarketInterval, 5*time.Minute)
}

// GetTimeout parses the per-source timeout, defaulting to 10 seconds
func (c *UpstreamConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 10*time.Second)
}

// GetTimeout parses the Gemini timeout, defaulting to 15 seconds
func (c *GeminiConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

// GetTimeout parses the Claude timeout, defaulting to 15 seconds
func (c *ClaudeConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// TTLs returns the configured namespace TTL overrides
func (c *CacheConfig) TTLs() map[string]time.Duration {
	return map[string]time.Duration{
		"economic": seconds(c.EconomicTTL),
		"stock":    seconds(c.StockTTL),
		"ai":       seconds(c.AIContentTTL),
		"news":     seconds(c.NewsTTL),
	}
}
