// chorechat - Family Chore Assistant Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/chorechat/internal/agent"
	"github.com/ashureev/chorechat/internal/api"
	"github.com/ashureev/chorechat/internal/assistant"
	"github.com/ashureev/chorechat/internal/config"
	"github.com/ashureev/chorechat/internal/healthcheck"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/ashureev/chorechat/internal/middleware"
	"github.com/ashureev/chorechat/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "llm_provider", cfg.LLM.Provider, "timezone", cfg.Timezone)

	// Metrics.
	reg := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath, store.WithLocation(loc))
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	client, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		slog.Error("Failed to initialize language model client", "error", err)
		os.Exit(1)
	}
	if cfg.LLM.Provider == llm.ProviderNone {
		slog.Info("AI features disabled (LLM_PROVIDER=none), keyword fallbacks only")
	}
	client = llm.Instrument(client, m, logger)

	clock := func() time.Time { return time.Now().In(loc) }
	pipeline := assistant.NewPipeline(client, assistant.PipelineConfig{
		Metrics:       m,
		Logger:        logger,
		Clock:         clock,
		HistoryWindow: cfg.Assistant.HistoryWindow,
	})

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	service := agent.NewService(pipeline, repo, agent.ServiceConfig{
		HistoryWindow:    cfg.Assistant.HistoryWindow,
		CompletionWindow: time.Duration(cfg.Assistant.CompletionWindowDays) * 24 * time.Hour,
		Location:         loc,
		Clock:            clock,
	}, logger)

	// Initialize handlers.
	agentHandler := agent.NewHandler(service, conversationLogger, m, agent.HandlerConfig{
		RateLimitRequests:  cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:    cfg.RateLimit.WindowDuration,
		MaxRequestBodySize: cfg.Assistant.MaxRequestBodySize,
		TurnTimeout:        cfg.Assistant.TurnTimeout,
		AllowedOrigin:      cfg.FrontendURL,
		IsDevelopment:      cfg.IsDevelopment(),
	})
	defer agentHandler.Close()
	healthHandler := api.NewHealthHandler(repo, cfg.LLM.Provider, cfg.Timezone)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	allowedOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		allowedOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(allowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	// Assistant routes carry their own identity middleware.
	agentHandler.RegisterRoutes(r)

	// Create server.
	// WriteTimeout stays 0 so websocket sessions are not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start retention worker.
	agent.StartRetentionWorker(ctx, repo, cfg.Assistant.HistoryRetention)
	slog.Info("Retention worker started", "history_retention", cfg.Assistant.HistoryRetention)

	// Optional gRPC health endpoint.
	var grpcHealth *healthcheck.Server
	if cfg.GrpcHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GrpcHealthAddr)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "addr", cfg.GrpcHealthAddr, "error", err)
			os.Exit(1)
		}
		grpcHealth = healthcheck.New(repo, m, logger)
		grpcHealth.Watch(ctx, 0)
		go func() {
			if err := grpcHealth.Serve(lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
