// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes bot settings such as
// Telegram credentials, upstream API keys, quota and cache tuning, deletion
// delays, server timeouts, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-movie-bot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects the persistence backend for filter words and the chat
// registry.
type StoreConfig struct {
	Backend         string // "file" or "bolt"
	FilterWordsPath string // JSON array of filter words (file backend)
	RegistryPath    string // JSON group/channel id lists (file backend)
	BoltPath        string // bbolt database path (bolt backend)
}

// Config holds all configuration values for the application.
type Config struct {
	// Telegram
	BotToken   string // BOT_TOKEN (required)
	OperatorID int64  // OPERATOR_ID: the only user allowed to run admin commands
	WebhookURL string // WEBHOOK_URL: public base URL; empty = long polling

	// Upstream providers
	OMDBAPIKey       string        // OMDB_API_KEY (required)
	OMDBBaseURL      string        // OMDB_BASE_URL
	ShortenerAPIKey  string        // SHORTENER_API_KEY; empty disables shortening
	ShortenerBaseURL string        // SHORTENER_BASE_URL
	UpstreamTimeout  time.Duration // per-request HTTP timeout

	// Quota / caching
	MaxDailyRequests int           // shared daily ceiling for upstream calls
	CacheTTL         time.Duration // metadata lookup cache
	RecommendTTL     time.Duration // recommendation cache
	DialogTTL        time.Duration // guided-dialog idle expiry

	// Auto-deletion delays
	DeleteDelaySearch time.Duration // search interactions
	DeleteDelayInfo   time.Duration // /help, /start, /devinfo and similar
	DeleteDelayNotice time.Duration // short confirmations
	DeleteDelayFilter time.Duration // moderation notices

	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	GinMode           string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Rate limiting (webhook edge)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Persistence
	Store StoreConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Telegram
		BotToken:   getenv("BOT_TOKEN", ""),
		OperatorID: getint64("OPERATOR_ID", 0),
		WebhookURL: strings.TrimRight(getenv("WEBHOOK_URL", ""), "/"),

		// Upstream providers
		OMDBAPIKey:       getenv("OMDB_API_KEY", ""),
		OMDBBaseURL:      getenv("OMDB_BASE_URL", "https://www.omdbapi.com/"),
		ShortenerAPIKey:  getenv("SHORTENER_API_KEY", ""),
		ShortenerBaseURL: getenv("SHORTENER_BASE_URL", "https://mdiskshortner.link/api"),
		UpstreamTimeout:  getdur("UPSTREAM_TIMEOUT", 60*time.Second),

		// Quota / caching
		MaxDailyRequests: getint("MAX_DAILY_REQUESTS", 1000),
		CacheTTL:         getdur("CACHE_TTL", time.Hour),
		RecommendTTL:     getdur("RECOMMEND_TTL", 24*time.Hour),
		DialogTTL:        getdur("DIALOG_TTL", 10*time.Minute),

		// Auto-deletion delays
		DeleteDelaySearch: getdur("DELETE_DELAY_SEARCH", 80*time.Second),
		DeleteDelayInfo:   getdur("DELETE_DELAY_INFO", 60*time.Second),
		DeleteDelayNotice: getdur("DELETE_DELAY_NOTICE", 20*time.Second),
		DeleteDelayFilter: getdur("DELETE_DELAY_FILTER", 5*time.Second),

		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Persistence
		Store: StoreConfig{
			Backend:         strings.ToLower(getenv("STORE_BACKEND", "file")),
			FilterWordsPath: getenv("FILTER_WORDS_PATH", "filtered_words.json"),
			RegistryPath:    getenv("REGISTRY_PATH", "chat_registry.json"),
			BoltPath:        getenv("BOLT_PATH", "moviebot.db"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-movie-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if strings.TrimSpace(cfg.BotToken) == "" {
		return cfg, errors.New("BOT_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.OMDBAPIKey) == "" {
		return cfg, errors.New("OMDB_API_KEY must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.UpstreamTimeout <= 0 {
		return cfg, errors.New("UPSTREAM_TIMEOUT must be > 0")
	}
	if cfg.MaxDailyRequests < 1 {
		return cfg, errors.New("MAX_DAILY_REQUESTS must be >= 1")
	}
	if cfg.CacheTTL <= 0 || cfg.RecommendTTL <= 0 {
		return cfg, errors.New("cache TTLs must be > 0")
	}
	if cfg.DialogTTL <= 0 {
		return cfg, errors.New("DIALOG_TTL must be > 0")
	}
	if cfg.DeleteDelaySearch <= 0 || cfg.DeleteDelayInfo <= 0 || cfg.DeleteDelayNotice <= 0 || cfg.DeleteDelayFilter <= 0 {
		return cfg, errors.New("deletion delays must be positive durations")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	switch cfg.Store.Backend {
	case "file", "bolt":
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: file, bolt")
	}
	if cfg.Store.Backend == "file" {
		if strings.TrimSpace(cfg.Store.FilterWordsPath) == "" || strings.TrimSpace(cfg.Store.RegistryPath) == "" {
			return cfg, errors.New("FILTER_WORDS_PATH and REGISTRY_PATH must not be empty")
		}
	}
	if cfg.Store.Backend == "bolt" && strings.TrimSpace(cfg.Store.BoltPath) == "" {
		return cfg, errors.New("BOLT_PATH must not be empty")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
