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

	"github.com/kailas-cloud/ragdex/internal/config"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/domain"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	"github.com/kailas-cloud/ragdex/internal/repository/embcache"
	"github.com/kailas-cloud/ragdex/internal/repository/milvus"
	chiTransport "github.com/kailas-cloud/ragdex/internal/transport/chi"
	"github.com/kailas-cloud/ragdex/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/ragdex/internal/transport/openai"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	memoryuc "github.com/kailas-cloud/ragdex/internal/usecase/memory"
	retrieveuc "github.com/kailas-cloud/ragdex/internal/usecase/retrieve"
	"github.com/kailas-cloud/ragdex/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting ragdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("milvus_address", cfg.Milvus.Address),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	ctx := context.Background()

	// Vector store connection
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{
		Address:        cfg.Milvus.Address,
		ConnectTimeout: time.Duration(cfg.Milvus.ConnectTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Milvus", zap.Error(err))
	}
	defer func() { _ = milvusClient.Close() }()
	logger.Info("Connected to Milvus")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()

	docStore := milvus.NewStore(milvusClient, milvus.StoreConfig{
		Collection:         cfg.Milvus.Collection,
		Dim:                cfg.Embedding.Dimensions,
		HNSWM:              cfg.Milvus.HNSWM,
		HNSWEfConstruction: cfg.Milvus.HNSWEFConstruct,
	}, logger)
	memStore := milvus.NewMemoryStore(milvusClient, milvus.StoreConfig{
		Collection:         cfg.Memory.Collection,
		Dim:                cfg.Embedding.Dimensions,
		HNSWM:              cfg.Milvus.HNSWM,
		HNSWEfConstruction: cfg.Milvus.HNSWEFConstruct,
	}, logger)

	// Make the primary collection queryable up front; the memory corpus is
	// ensured lazily on first use.
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	if err := docStore.Ensure(ensureCtx); err != nil {
		logger.Warn("Primary collection not ready yet, will retry on first request", zap.Error(err))
	}
	cancelEnsure()

	// Embedder chain: provider -> optional cache
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "ollama",
		Logger:     logger,
	})

	var embedder domain.Embedder = baseEmbedder
	if cfg.Cache.Enabled {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()
		if err := kv.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		embedder = embcache.New(
			baseEmbedder, kv,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	generator := ollama.NewGenerator(&ollama.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Logger:  logger,
	})

	// Use case services
	retrieveSvc := retrieveuc.New(embedder, docStore, retrieveuc.Config{
		TopK:            cfg.RAG.TopK,
		SnippetMaxChars: cfg.RAG.SnippetMaxChars,
		Concurrency:     int64(cfg.RAG.SearchConcurrency),
	})
	ingestSvc := ingestuc.New(embedder, docStore, milvus.NewDocumentID)
	chatSvc := chatuc.New(retrieveSvc, generator, chatuc.Config{
		RetrieveTimeout: time.Duration(cfg.RAG.RetrieveTimeoutSec) * time.Second,
		PromptTimeout:   time.Duration(cfg.RAG.PromptTimeoutSec) * time.Second,
		GenerateTimeout: time.Duration(cfg.RAG.GenerateTimeoutSec) * time.Second,
		TotalTimeout:    time.Duration(cfg.RAG.TotalTimeoutSec) * time.Second,
	})
	memorySvc := memoryuc.New(embedder, memStore, memoryuc.Config{
		Collection:    cfg.Memory.Collection,
		MilvusAddress: cfg.Milvus.Address,
		TopK:          cfg.Memory.TopK,
	})
	healthSvc := healthuc.New(
		milvusClient,
		newEmbeddingHealthChecker(embedder),
		generator,
		docStore,
	)

	server := chiTransport.NewServer(
		ingestSvc, chatSvc, retrieveSvc, generator, memorySvc, healthSvc,
		chiTransport.GenerationInfo{
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
		},
		chiTransport.Timeouts{
			Retrieve: time.Duration(cfg.RAG.RetrieveTimeoutSec) * time.Second,
			Generate: time.Duration(cfg.RAG.GenerateTimeoutSec) * time.Second,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.APIKeyMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
