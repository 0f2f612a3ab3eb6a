package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/support-chat/internal/middleware"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

// RouterConfig collects everything the HTTP API is built from.
type RouterConfig struct {
	Chat          *ChatHandler
	Messages      *MessageHandler
	Conversations *ConversationHandler
	Auth          *AuthHandler
	Health        *HealthHandler

	Tokens            middleware.TokenParser
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *logger.Logger
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.Tokens))
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Post("/chat", cfg.Chat.Send)
		r.Post("/login", cfg.Auth.Login)
		r.Get("/conversations/{id}/messages", cfg.Messages.List)

		r.With(middleware.RequireStaff()).Get("/conversations", cfg.Conversations.List)
	})

	return r
}
