// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/auth"
	"github.com/capitalize-ai/support-chat/internal/config"
	"github.com/capitalize-ai/support-chat/internal/handler"
	"github.com/capitalize-ai/support-chat/internal/llm"
	natsclient "github.com/capitalize-ai/support-chat/internal/nats"
	"github.com/capitalize-ai/support-chat/internal/nlu"
	"github.com/capitalize-ai/support-chat/internal/service"
	"github.com/capitalize-ai/support-chat/internal/store"
	"github.com/capitalize-ai/support-chat/pkg/logger"
	"github.com/capitalize-ai/support-chat/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("starting API server")
	ctx := context.Background()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "support-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.Shutdown(context.Background(), tp) }()
		}
	}

	db, err := store.Open(store.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        store.ParseLogLevel(cfg.DBLogLevel),
	})
	if err != nil {
		return err
	}
	if err := store.AutoMigrate(ctx, db); err != nil {
		return err
	}
	repo := store.New(db)
	defer func() { _ = repo.Close() }()

	turnOpts := []service.TurnOption{service.WithOwnerFallback(!cfg.RequireSignedIdentity)}

	// The turn event stream is optional.
	var natsClient *natsclient.Client
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:            cfg.NATSURL,
			CAFile:         cfg.NATSCAFile,
			CertFile:       cfg.NATSCertFile,
			KeyFile:        cfg.NATSKeyFile,
			Token:          cfg.NATSToken,
			ConnectTimeout: 5 * time.Second,
		}, log)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			return err
		}
		turnOpts = append(turnOpts, service.WithPublisher(streamManager))
	} else {
		log.Info("NATS_URL not set, turn events are not published")
	}

	classifier, err := newClassifier(cfg, log)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration)

	turnSvc := service.NewTurnService(repo, classifier, log.Component("turns"), turnOpts...)
	historySvc := service.NewHistoryService(repo)
	authSvc := service.NewAuthService(repo, tokens, log.Component("auth"))

	router := handler.NewRouter(handler.RouterConfig{
		Chat:              handler.NewChatHandler(turnSvc, cfg.RequireSignedIdentity, log),
		Messages:          handler.NewMessageHandler(historySvc, log),
		Conversations:     handler.NewConversationHandler(historySvc, log),
		Auth:              handler.NewAuthHandler(authSvc, log),
		Health:            handler.NewHealthHandler(repo, natsClient),
		Tokens:            tokens,
		AllowedOrigins:    cfg.AllowedOrigins(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// newClassifier builds the configured NLU adapter behind the timeout and
// fallback wrapper.
func newClassifier(cfg *config.Config, log *logger.Logger) (*nlu.Resilient, error) {
	provider := strings.ToLower(cfg.NLUProvider)

	var next nlu.Classifier
	switch provider {
	case config.NLUProviderRasa:
		next = nlu.NewRasaClient(cfg.RasaURL, cfg.NLUTimeout)
	case config.NLUProviderOpenAI, config.NLUProviderAnthropic:
		apiKey := cfg.OpenAIAPIKey
		if provider == config.NLUProviderAnthropic {
			apiKey = cfg.AnthropicAPIKey
		}
		client, err := llm.NewClient(llm.Provider(provider), apiKey)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", provider, err)
		}
		next = nlu.NewLLMClassifier(client, cfg.NLUModel, service.KnownIntents())
	default:
		return nil, fmt.Errorf("unknown NLU provider %q", cfg.NLUProvider)
	}

	log.Info("nlu classifier configured",
		zap.String("provider", provider),
		zap.Duration("timeout", cfg.NLUTimeout),
	)
	return nlu.NewResilient(next, provider, cfg.NLUTimeout, log.Component("nlu")), nil
}
