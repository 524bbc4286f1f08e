package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/synapse-cloud/chatsense/internal/cluster"
	"github.com/synapse-cloud/chatsense/internal/config"
	dbRedis "github.com/synapse-cloud/chatsense/internal/db/redis"
	logpkg "github.com/synapse-cloud/chatsense/internal/logger"
	"github.com/synapse-cloud/chatsense/internal/metrics"
	messagerepo "github.com/synapse-cloud/chatsense/internal/repository/message"
	chiTransport "github.com/synapse-cloud/chatsense/internal/transport/chi"
	openaiTransport "github.com/synapse-cloud/chatsense/internal/transport/openai"
	digestuc "github.com/synapse-cloud/chatsense/internal/usecase/digest"
	healthuc "github.com/synapse-cloud/chatsense/internal/usecase/health"
	insightsuc "github.com/synapse-cloud/chatsense/internal/usecase/insights"
	minutesuc "github.com/synapse-cloud/chatsense/internal/usecase/minutes"
	proactiveuc "github.com/synapse-cloud/chatsense/internal/usecase/proactive"
	searchuc "github.com/synapse-cloud/chatsense/internal/usecase/search"
	"github.com/synapse-cloud/chatsense/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chatsense API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create message store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to message store")

	// Register LLM metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.EmbeddingModel,
		Dimensions: cfg.LLM.EmbeddingDimensions,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.ChatModel,
		Logger:  logger,
	})
	// Minutes synthesis runs on a stronger model when configured.
	minutesCompleter := completer
	if cfg.LLM.MinutesModel != "" && cfg.LLM.MinutesModel != cfg.LLM.ChatModel {
		minutesCompleter = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.MinutesModel,
			Logger:  logger,
		})
	}
	logger.Info("LLM providers created",
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
		zap.Int("dimensions", cfg.LLM.EmbeddingDimensions),
	)

	msgRepo := messagerepo.New(store, cfg.Storage.KeyPrefix)

	// Create use case services
	searchSvc := searchuc.New(embedder)
	if cfg.Analysis.RerankEnabled {
		searchSvc = searchSvc.WithReranker(openaiTransport.NewReranker(completer))
	}

	clusterer := cluster.New(embedder)
	digestSvc := digestuc.New(msgRepo, completer).WithCompaction(
		clusterer,
		cfg.Analysis.CompactionThreshold,
		cfg.Analysis.CompactionTarget,
		cfg.Analysis.SimilarityThreshold,
	)

	insightsSvc := insightsuc.New(msgRepo, completer)
	minutesSvc := minutesuc.New(msgRepo, digestSvc, insightsSvc, minutesCompleter)
	proactiveSvc := proactiveuc.New(msgRepo, completer)
	healthSvc := healthuc.New(store, embedder)

	// Create chi server
	server := chiTransport.NewServer(
		msgRepo, searchSvc, digestSvc, insightsSvc, minutesSvc, proactiveSvc, healthSvc,
		cfg.Analysis.MaxMessages, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
