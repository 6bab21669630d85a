// Package main is the entry point for the booking server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/chat"
	"github.com/capitalize-ai/equipment-booking/internal/config"
	"github.com/capitalize-ai/equipment-booking/internal/handler"
	"github.com/capitalize-ai/equipment-booking/internal/line"
	"github.com/capitalize-ai/equipment-booking/internal/llm"
	"github.com/capitalize-ai/equipment-booking/internal/middleware"
	natsclient "github.com/capitalize-ai/equipment-booking/internal/nats"
	"github.com/capitalize-ai/equipment-booking/internal/service"
	"github.com/capitalize-ai/equipment-booking/internal/timeparse"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
	"github.com/capitalize-ai/equipment-booking/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting booking server",
		zap.Int("equipment_count", cfg.EquipmentCount),
		zap.String("time_zone", loc.String()),
	)

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "equipment-booking", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when configured; reservations are published as events
	var (
		publisher service.EventPublisher
		broker    handler.ConnectionChecker
	)
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = streamManager
		broker = natsClient
	} else {
		log.Info("NATS_URL not set, reservation events disabled")
	}

	// Command recognition, with an LLM fallback when a key is configured
	var recognizer service.CommandRecognizer = chat.KeywordRecognizer{}
	if provider, apiKey := llmSettings(cfg); apiKey != "" {
		llmClient, err := llm.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create LLM client, keyword recognition only", zap.Error(err))
		} else {
			log.Info("LLM command recognition enabled", zap.String("provider", llmClient.Name()))
			recognizer = chat.NewLLMRecognizer(llmClient, cfg.LLMTimeout, log)
		}
	}

	// Initialize services
	clock := service.SystemClock{}
	reservationSvc := service.NewReservationService(clock, publisher, log)
	sessions := service.NewSessionManager(reservationSvc, timeparse.New(clock, loc), clock, cfg.EquipmentCount, log)
	dispatcher := service.NewDispatcher(sessions, recognizer, chat.NewFormatter(clock, loc), log)

	lineClient, err := line.NewClient(cfg.LineAPIBaseURL, cfg.LineChannelAccessToken)
	if err != nil {
		log.Fatal("failed to create LINE client", zap.Error(err))
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(broker)
	webhookHandler := handler.NewWebhookHandler(cfg.LineChannelSecret, dispatcher, lineClient, log)
	messageHandler := handler.NewMessageHandler(dispatcher, log)
	reservationHandler := handler.NewReservationHandler(reservationSvc, cfg.EquipmentCount, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// LINE webhook, authenticated by signature
	r.With(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)).
		Post("/webhook", webhookHandler.Receive)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/messages", messageHandler.Send)

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", reservationHandler.ListActive)
			r.Get("/mine", reservationHandler.ListMine)
			r.Delete("/{id}", reservationHandler.Cancel)
		})

		r.Get("/equipment/{id}/schedule", reservationHandler.Schedule)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// llmSettings picks the configured provider, falling back to whichever key is set.
func llmSettings(cfg *config.Config) (llm.Provider, string) {
	provider := llm.Provider(cfg.DefaultLLM)
	switch {
	case provider == llm.ProviderOpenAI && cfg.OpenAIAPIKey != "":
		return llm.ProviderOpenAI, cfg.OpenAIAPIKey
	case provider == llm.ProviderAnthropic && cfg.AnthropicAPIKey != "":
		return llm.ProviderAnthropic, cfg.AnthropicAPIKey
	case cfg.AnthropicAPIKey != "":
		return llm.ProviderAnthropic, cfg.AnthropicAPIKey
	default:
		return llm.ProviderOpenAI, cfg.OpenAIAPIKey
	}
}
