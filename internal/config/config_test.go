package config

import (
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OMDB_API_KEY", "k")
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Required
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OMDB_API_KEY", "omdbkey")
	t.Setenv("OPERATOR_ID", "777000")

	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")

	// Telegram / providers
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/") // trailing slash stripped
	t.Setenv("OMDB_BASE_URL", "https://omdb.test/")
	t.Setenv("UPSTREAM_TIMEOUT", "30s")

	// Quota / caches / delays
	t.Setenv("MAX_DAILY_REQUESTS", "50")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("RECOMMEND_TTL", "12h")
	t.Setenv("DIALOG_TTL", "5m")
	t.Setenv("DELETE_DELAY_SEARCH", "40s")
	t.Setenv("DELETE_DELAY_FILTER", "3s")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 20.0
	t.Setenv("RATE_BURST", "nope") // -> default 40

	// Store
	t.Setenv("STORE_BACKEND", "BOLT") // normalized to "bolt"
	t.Setenv("BOLT_PATH", "state.db")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Telegram
	if cfg.BotToken != "123:abc" || cfg.OperatorID != 777000 {
		t.Fatalf("telegram fields unexpected: %+v", cfg)
	}
	if cfg.WebhookURL != "https://bot.example.com" {
		t.Fatalf("WebhookURL = %q, want trailing slash stripped", cfg.WebhookURL)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	// Providers
	if cfg.OMDBBaseURL != "https://omdb.test/" || cfg.UpstreamTimeout != 30*time.Second {
		t.Fatalf("provider fields unexpected: %+v", cfg)
	}

	// Quota / caches / delays (mix of overrides and defaults)
	if cfg.MaxDailyRequests != 50 ||
		cfg.CacheTTL != 90*time.Minute ||
		cfg.RecommendTTL != 12*time.Hour ||
		cfg.DialogTTL != 5*time.Minute {
		t.Fatalf("quota/cache fields unexpected: %+v", cfg)
	}
	if cfg.DeleteDelaySearch != 40*time.Second ||
		cfg.DeleteDelayInfo != 60*time.Second ||
		cfg.DeleteDelayNotice != 20*time.Second ||
		cfg.DeleteDelayFilter != 3*time.Second {
		t.Fatalf("delay fields unexpected: %+v", cfg)
	}

	// Rate limiting fell back to defaults on parse errors
	if cfg.RateRPS != 20.0 || cfg.RateBurst != 40 {
		t.Fatalf("rate fields unexpected: %+v", cfg)
	}

	// Store
	if cfg.Store.Backend != "bolt" || cfg.Store.BoltPath != "state.db" {
		t.Fatalf("store fields unexpected: %+v", cfg.Store)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" ||
		cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" ||
		cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel fields unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	base := func(t *testing.T) {
		t.Helper()
		t.Setenv("BOT_TOKEN", "123:abc")
		t.Setenv("OMDB_API_KEY", "k")
	}

	cases := map[string]struct {
		setup   func(t *testing.T)
		wantSub string
	}{
		"missing bot token": {
			setup: func(t *testing.T) {
				t.Setenv("BOT_TOKEN", " ")
				t.Setenv("OMDB_API_KEY", "k")
			},
			wantSub: "BOT_TOKEN",
		},
		"missing omdb key": {
			setup: func(t *testing.T) {
				t.Setenv("BOT_TOKEN", "123:abc")
				t.Setenv("OMDB_API_KEY", "")
			},
			wantSub: "OMDB_API_KEY",
		},
		"bad log level": {
			setup: func(t *testing.T) {
				base(t)
				t.Setenv("LOG_LEVEL", "loud")
			},
			wantSub: "LOG_LEVEL",
		},
		"zero daily quota": {
			setup: func(t *testing.T) {
				base(t)
				t.Setenv("MAX_DAILY_REQUESTS", "0")
			},
			wantSub: "MAX_DAILY_REQUESTS",
		},
		"negative dialog ttl": {
			setup: func(t *testing.T) {
				base(t)
				t.Setenv("DIALOG_TTL", "-1m")
			},
			wantSub: "DIALOG_TTL",
		},
		"unknown store backend": {
			setup: func(t *testing.T) {
				base(t)
				t.Setenv("STORE_BACKEND", "redis")
			},
			wantSub: "STORE_BACKEND",
		},
		"sample ratio out of range": {
			setup: func(t *testing.T) {
				base(t)
				t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
			},
			wantSub: "OTEL_TRACES_SAMPLER_ARG",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.setup(t)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("Load() err = %v, want substring %q", err, tc.wantSub)
			}
		})
	}
}

// --- helper parsing fallbacks ---

func TestHelpers_FallBackOnInvalidInput(t *testing.T) {
	t.Setenv("H_INT64", "abc")
	if got := getint64("H_INT64", 42); got != 42 {
		t.Fatalf("getint64 fallback = %d, want 42", got)
	}
	t.Setenv("H_BOOL", "maybe")
	if got := getbool("H_BOOL", true); !got {
		t.Fatalf("getbool fallback = false, want true")
	}
	t.Setenv("H_DUR", "soon")
	if got := getdur("H_DUR", time.Minute); got != time.Minute {
		t.Fatalf("getdur fallback = %v, want 1m", got)
	}
}
