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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/broker/rabbit"
	"github.com/kailas-cloud/fleetdex/internal/config"
	"github.com/kailas-cloud/fleetdex/internal/db/postgres"
	"github.com/kailas-cloud/fleetdex/internal/db/rediscache"
	"github.com/kailas-cloud/fleetdex/internal/domain"
	logpkg "github.com/kailas-cloud/fleetdex/internal/logger"
	"github.com/kailas-cloud/fleetdex/internal/metrics"
	agentrepo "github.com/kailas-cloud/fleetdex/internal/repository/agent"
	catalogrepo "github.com/kailas-cloud/fleetdex/internal/repository/catalog"
	"github.com/kailas-cloud/fleetdex/internal/repository/embcache"
	orderrepo "github.com/kailas-cloud/fleetdex/internal/repository/order"
	readingrepo "github.com/kailas-cloud/fleetdex/internal/repository/reading"
	chiTransport "github.com/kailas-cloud/fleetdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/fleetdex/internal/transport/openai"
	agentuc "github.com/kailas-cloud/fleetdex/internal/usecase/agent"
	cataloguc "github.com/kailas-cloud/fleetdex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/fleetdex/internal/usecase/health"
	orderuc "github.com/kailas-cloud/fleetdex/internal/usecase/order"
	readinguc "github.com/kailas-cloud/fleetdex/internal/usecase/reading"
	"github.com/kailas-cloud/fleetdex/internal/version"
)

func main() {
	// Load .env before reading configuration
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fleetdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	ctx := context.Background()

	pool, err := postgres.New(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	if err := postgres.Migrate(ctx, pool, cfg.Embedding.Dimensions, logger); err != nil {
		logger.Fatal("Schema migration failed", zap.Error(err))
	}

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterBrokerMetrics()

	// Broker is optional: a failed connect leaves order creation in
	// degraded DB-only mode instead of stopping the process.
	var publisher *rabbit.Publisher
	if cfg.Broker.URL != "" {
		publisher, err = rabbit.New(rabbit.Config{
			URL:   cfg.Broker.URL,
			Queue: cfg.Broker.Queue,
		}, logger)
		if err != nil {
			logger.Warn("Broker unavailable, orders will stay in initial status", zap.Error(err))
			publisher = nil
		} else {
			defer func() { _ = publisher.Close() }()
			logger.Info("Connected to broker", zap.String("queue", cfg.Broker.Queue))
		}
	}

	embedder := buildEmbedder(cfg, logger)

	catalogRepo := catalogrepo.New(pool)
	agentRepo := agentrepo.New(pool)
	readingRepo := readingrepo.New(pool)
	orderRepo := orderrepo.New(pool)

	catalogSvc := cataloguc.New(catalogRepo, embedder, cfg.Query.DefaultPageSize, logger)
	agentSvc := agentuc.New(agentRepo, cfg.Query.DefaultPageSize, cfg.Query.DefaultRadiusM)
	readingSvc := readinguc.New(readingRepo, cfg.Query.DefaultPageSize)

	// Interface nil-ness: a typed nil *rabbit.Publisher wrapped in the
	// Publisher interface would not compare equal to nil.
	var orderPub orderuc.Publisher
	var brokerCheck healthuc.BrokerChecker
	if publisher != nil {
		orderPub = publisher
		brokerCheck = publisher
	}
	orderSvc := orderuc.New(orderRepo, orderPub, logger)

	var embedCheck healthuc.EmbeddingChecker
	if hc, ok := embedder.(healthuc.EmbeddingChecker); ok {
		embedCheck = hc
	}
	healthSvc := healthuc.New(pool, brokerCheck, embedCheck)

	server := chiTransport.NewServer(
		catalogSvc, agentSvc, readingSvc, orderSvc, healthSvc,
		cfg.Query.MaxPageSize, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildEmbedder assembles the optional query embedder chain: OpenAI -> Cached.
// Returns nil when no API key is configured; hybrid search then scores by
// keyword relevance only.
func buildEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.APIKey == "" {
		return nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	if len(cfg.Cache.Addrs) == 0 {
		return base
	}

	cache, err := rediscache.New(rediscache.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Warn("Embedding cache unavailable, using uncached embedder", zap.Error(err))
		return base
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return embcache.New(base, cache, ttl, metrics.EmbeddingCacheTotal, logger)
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

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

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
