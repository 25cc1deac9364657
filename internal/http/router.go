// Package httpapi wires the webhook transport (Gin) to the bot's update
// router. It centralizes cross-cutting concerns: tracing, correlation IDs,
// structured logging, panic recovery, metrics, and edge rate limiting.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after the logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-movie-bot/internal/config"
	"github.com/tbourn/go-movie-bot/internal/http/middleware"
)

// UpdateDispatcher handles one decoded chat update to completion.
type UpdateDispatcher interface {
	HandleUpdate(ctx context.Context, u *gotgbot.Update)
}

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine: the token-guarded webhook, liveness, and Prometheus metrics.
func RegisterRoutes(r *gin.Engine, dispatcher UpdateDispatcher, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; Telegram updates are far smaller)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Webhook endpoint. The path segment doubles as a shared secret: Telegram
	// is configured to call /webhook/<bot token>, so a mismatch is a probe.
	r.POST("/webhook/:token", webhookHandler(dispatcher, cfg.BotToken))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
}

// webhookHandler authenticates the path token and dispatches the update.
// Updates are handled synchronously; Telegram retries on non-2xx, so a
// processed update always answers 200 even when a reply failed downstream.
func webhookHandler(dispatcher UpdateDispatcher, botToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(botToken)) != 1 {
			middleware.LoggerFrom(c).Warn().Msg("webhook called with bad token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var u gotgbot.Update
		if err := c.ShouldBindJSON(&u); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("malformed webhook payload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
			return
		}

		dispatcher.HandleUpdate(c.Request.Context(), &u)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body size to protect JSON decoding.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
