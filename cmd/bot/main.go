// Command bot runs the Telegram movie metadata bot. It wires configuration,
// persistence, the OMDb client, moderation, the chat registry, and the update
// router, then serves updates either over a webhook or via long polling.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-bot/internal/bot"
	"github.com/tbourn/go-movie-bot/internal/config"
	"github.com/tbourn/go-movie-bot/internal/filter"
	httpapi "github.com/tbourn/go-movie-bot/internal/http"
	"github.com/tbourn/go-movie-bot/internal/observability"
	"github.com/tbourn/go-movie-bot/internal/omdb"
	"github.com/tbourn/go-movie-bot/internal/quota"
	"github.com/tbourn/go-movie-bot/internal/recommend"
	"github.com/tbourn/go-movie-bot/internal/registry"
	"github.com/tbourn/go-movie-bot/internal/shortener"
	"github.com/tbourn/go-movie-bot/internal/store"
	"github.com/tbourn/go-movie-bot/internal/sysutil"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.NewLogger(cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	httpc := &http.Client{Timeout: cfg.UpstreamTimeout}

	guard := quota.NewGuard(cfg.MaxDailyRequests)
	meta, err := omdb.NewClient(cfg.OMDBBaseURL, cfg.OMDBAPIKey, httpc, guard, cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("omdb client init failed")
	}
	short := shortener.NewClient(cfg.ShortenerBaseURL, cfg.ShortenerAPIKey, httpc)
	rec := recommend.NewEngine(meta, cfg.RecommendTTL)

	mod, err := filter.New(st)
	if err != nil {
		log.Fatal().Err(err).Msg("load filter words failed")
	}
	reg, err := registry.New(st)
	if err != nil {
		log.Fatal().Err(err).Msg("load chat registry failed")
	}

	tg, err := gotgbot.NewBot(cfg.BotToken, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram bot init failed")
	}
	log.Info().Str("username", tg.User.Username).Msg("authenticated with Telegram")

	router := bot.NewRouter(
		bot.NewTelegram(tg),
		meta, rec, mod, reg, short,
		bot.Options{
			OperatorID: cfg.OperatorID,
			Username:   tg.User.Username,
			Delays: bot.Delays{
				Search: cfg.DeleteDelaySearch,
				Info:   cfg.DeleteDelayInfo,
				Notice: cfg.DeleteDelayNotice,
				Filter: cfg.DeleteDelayFilter,
			},
			DialogTTL: cfg.DialogTTL,
		},
	)
	defer router.Shutdown()

	if cfg.WebhookURL != "" {
		runWebhook(ctx, cfg, tg, router)
	} else {
		runPolling(ctx, tg, router)
	}

	log.Info().Msg("shutdown complete")
}

// openStore selects the persistence backend.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "bolt":
		return store.OpenBolt(cfg.BoltPath)
	default:
		return store.OpenFile(cfg.FilterWordsPath, cfg.RegistryPath)
	}
}

// runWebhook registers the webhook with Telegram and serves updates over HTTP
// until the context is cancelled.
func runWebhook(ctx context.Context, cfg config.Config, tg *gotgbot.Bot, router *bot.Router) {
	hookURL := cfg.WebhookURL + "/webhook/" + cfg.BotToken
	if _, err := tg.SetWebhook(hookURL, &gotgbot.SetWebhookOpts{
		DropPendingUpdates: true,
		AllowedUpdates:     []string{"message", "my_chat_member"},
	}); err != nil {
		log.Fatal().Err(err).Msg("set webhook failed")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, router, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("webhook server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
		return
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
}

// runPolling drains any stale webhook and long-polls getUpdates until the
// context is cancelled.
func runPolling(ctx context.Context, tg *gotgbot.Bot, router *bot.Router) {
	if _, err := tg.DeleteWebhook(&gotgbot.DeleteWebhookOpts{DropPendingUpdates: true}); err != nil {
		log.Fatal().Err(err).Msg("delete webhook failed")
	}

	log.Info().Msg("long polling started")
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := tg.GetUpdates(&gotgbot.GetUpdatesOpts{
			Offset:         offset,
			Timeout:        30,
			AllowedUpdates: []string{"message", "my_chat_member"},
			RequestOpts:    &gotgbot.RequestOpts{Timeout: 40 * time.Second},
		})
		if err != nil {
			log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for i := range updates {
			u := updates[i]
			if u.UpdateId >= offset {
				offset = u.UpdateId + 1
			}
			router.HandleUpdate(ctx, &u)
		}
	}
}
