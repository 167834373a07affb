// Package config loads runtime settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultQueries are the live search queries used when NEWS_QUERIES is unset.
var DefaultQueries = []string{
	"Netflix Warner Bros acquisition",
	"Netflix Warner merger",
	"Netflix WBD deal",
	"Warner Bros Discovery Netflix",
	"Paramount Skydance Warner",
}

type Config struct {
	// Live search settings
	NewsDataAPIKey  string        `yaml:"newsdata_api_key"`
	NewsDataURL     string        `yaml:"newsdata_url"`
	Queries         []string      `yaml:"queries"`
	Language        string        `yaml:"language"`
	PageSize        int           `yaml:"page_size"`
	FeedsConfigPath string        `yaml:"feeds_config_path"` // optional RSS search feeds
	FetchWorkers    int           `yaml:"fetch_workers"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	OverallGrace    time.Duration `yaml:"overall_grace"` // added to the per-call timeout

	// SEC settings
	SECBaseURL       string        `yaml:"sec_base_url"`
	SECTimeout       time.Duration `yaml:"sec_timeout"`
	SECUserAgent     string        `yaml:"sec_user_agent"`
	SECWindowDays    int           `yaml:"sec_window_days"`
	SECRatePerSecond float64       `yaml:"sec_rate_per_second"`

	// Archive settings
	ArchiveDriver   string `yaml:"archive_driver"` // file | postgres | mongo | none
	ArchiveFilePath string `yaml:"archive_file_path"`
	DatabaseURL     string `yaml:"database_url"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`

	// Cache settings
	CacheDriver string        `yaml:"cache_driver"` // memory | redis
	RedisURL    string        `yaml:"redis_url"`
	DataTTL     time.Duration `yaml:"cache_ttl_data"`
	SECTTL      time.Duration `yaml:"cache_ttl_sec"`
	SummaryTTL  time.Duration `yaml:"cache_ttl_summary"`

	// Summary settings
	SummaryProvider     string `yaml:"summary_provider"` // gemini | openai | none
	GeminiAPIKey        string `yaml:"gemini_api_key"`
	GeminiModel         string `yaml:"gemini_model"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	OpenAIModel         string `yaml:"openai_model"`
	MaxAIRequests       int    `yaml:"max_ai_requests"` // per day, 0 = unlimited
	SummaryMaxArticles  int    `yaml:"summary_max_articles"`
	DescriptionMaxChars int    `yaml:"description_max_chars"`

	// App settings
	RulesPath            string        `yaml:"rules_path"`
	Timezone             string        `yaml:"timezone"`
	HTTPAddr             string        `yaml:"http_addr"`
	EnableHTTPMonitoring bool          `yaml:"enable_http_monitoring"`
	LogLevel             string        `yaml:"log_level"`
	Debug                bool          `yaml:"debug"`
	RetryAttempts        int           `yaml:"retry_attempts"`
	RetryDelay           time.Duration `yaml:"retry_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		NewsDataURL:    "https://newsdata.io/api/1/news",
		Queries:        append([]string(nil), DefaultQueries...),
		Language:       "en",
		PageSize:       10,
		FetchWorkers:   5,
		RequestTimeout: 15 * time.Second,
		OverallGrace:   5 * time.Second,

		SECBaseURL:       "https://data.sec.gov/submissions",
		SECTimeout:       10 * time.Second,
		SECUserAgent:     "DealWatch research-bot contact@example.com",
		SECWindowDays:    30,
		SECRatePerSecond: 5,

		ArchiveDriver:   "file",
		ArchiveFilePath: "data/archive.json",
		MongoDatabase:   "dealwatch",
		MongoCollection: "articles",

		CacheDriver: "memory",
		DataTTL:     time.Hour,
		SECTTL:      time.Hour,
		SummaryTTL:  30 * time.Minute,

		SummaryProvider:     "gemini",
		GeminiModel:         "gemini-2.0-flash",
		OpenAIModel:         "gpt-4o-mini",
		MaxAIRequests:       50,
		SummaryMaxArticles:  15,
		DescriptionMaxChars: 500,

		Timezone:      "America/Toronto",
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first if present; DEALWATCH_CONFIG may point at a YAML file whose
// keys override the defaults; environment variables override both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("DEALWATCH_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.NewsDataAPIKey = getEnvOrDefault("NEWSDATA_API_KEY", c.NewsDataAPIKey)
	c.NewsDataURL = getEnvOrDefault("NEWSDATA_URL", c.NewsDataURL)
	if q := os.Getenv("NEWS_QUERIES"); q != "" {
		c.Queries = splitList(q)
	}
	c.Language = getEnvOrDefault("NEWS_LANGUAGE", c.Language)
	c.PageSize = getEnvIntOrDefault("NEWS_PAGE_SIZE", c.PageSize)
	c.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", c.FeedsConfigPath)
	c.FetchWorkers = getEnvIntOrDefault("FETCH_WORKERS", c.FetchWorkers)
	c.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", c.RequestTimeout)

	c.SECBaseURL = getEnvOrDefault("SEC_BASE_URL", c.SECBaseURL)
	c.SECTimeout = getEnvDurationOrDefault("SEC_TIMEOUT", c.SECTimeout)
	c.SECUserAgent = getEnvOrDefault("SEC_USER_AGENT", c.SECUserAgent)
	c.SECWindowDays = getEnvIntOrDefault("SEC_WINDOW_DAYS", c.SECWindowDays)
	if v := os.Getenv("SEC_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.SECRatePerSecond = f
		}
	}

	c.ArchiveDriver = strings.ToLower(getEnvOrDefault("ARCHIVE_DRIVER", c.ArchiveDriver))
	c.ArchiveFilePath = getEnvOrDefault("ARCHIVE_FILE_PATH", c.ArchiveFilePath)
	c.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.DatabaseURL)
	c.MongoURI = getEnvOrDefault("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnvOrDefault("MONGO_DATABASE", c.MongoDatabase)
	c.MongoCollection = getEnvOrDefault("MONGO_COLLECTION", c.MongoCollection)

	c.CacheDriver = strings.ToLower(getEnvOrDefault("CACHE_DRIVER", c.CacheDriver))
	c.RedisURL = getEnvOrDefault("REDIS_URL", c.RedisURL)
	c.DataTTL = getEnvDurationOrDefault("CACHE_TTL_DATA", c.DataTTL)
	c.SECTTL = getEnvDurationOrDefault("CACHE_TTL_SEC", c.SECTTL)
	c.SummaryTTL = getEnvDurationOrDefault("CACHE_TTL_SUMMARY", c.SummaryTTL)

	c.SummaryProvider = strings.ToLower(getEnvOrDefault("SUMMARY_PROVIDER", c.SummaryProvider))
	c.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnvOrDefault("GEMINI_MODEL", c.GeminiModel)
	c.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", c.OpenAIModel)
	c.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", c.MaxAIRequests)

	c.RulesPath = getEnvOrDefault("RULES_PATH", c.RulesPath)
	c.Timezone = getEnvOrDefault("TIMEZONE", c.Timezone)
	c.HTTPAddr = getEnvOrDefault("HTTP_ADDR", c.HTTPAddr)
	if v := os.Getenv("ENABLE_HTTP_MONITORING"); v != "" {
		c.EnableHTTPMonitoring = v == "true"
	}
	c.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", c.LogLevel))
	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go duration strings ("15s") or a plain
// number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Location returns the configured display time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	switch c.ArchiveDriver {
	case "file":
		if c.ArchiveFilePath == "" {
			return fmt.Errorf("ARCHIVE_FILE_PATH is required for the file archive")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres archive")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo archive")
		}
	case "none":
	default:
		return fmt.Errorf("ARCHIVE_DRIVER must be one of file, postgres, mongo, none; got %q", c.ArchiveDriver)
	}

	switch c.CacheDriver {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache")
		}
	default:
		return fmt.Errorf("CACHE_DRIVER must be memory or redis; got %q", c.CacheDriver)
	}

	switch c.SummaryProvider {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("SUMMARY_PROVIDER must be gemini, openai or none; got %q", c.SummaryProvider)
	}

	if c.FetchWorkers <= 0 {
		return fmt.Errorf("FETCH_WORKERS must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("NEWS_PAGE_SIZE must be positive")
	}
	if c.RequestTimeout <= 0 || c.SECTimeout <= 0 {
		return fmt.Errorf("request timeouts must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}
