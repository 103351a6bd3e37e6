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

	"github.com/dealspot-cloud/dealdex/internal/config"
	"github.com/dealspot-cloud/dealdex/internal/db/mongo"
	"github.com/dealspot-cloud/dealdex/internal/es"
	logpkg "github.com/dealspot-cloud/dealdex/internal/logger"
	"github.com/dealspot-cloud/dealdex/internal/metrics"
	categoryrepo "github.com/dealspot-cloud/dealdex/internal/repository/category"
	commentrepo "github.com/dealspot-cloud/dealdex/internal/repository/comment"
	dealrepo "github.com/dealspot-cloud/dealdex/internal/repository/deal"
	searchrepo "github.com/dealspot-cloud/dealdex/internal/repository/search"
	chiTransport "github.com/dealspot-cloud/dealdex/internal/transport/chi"
	dealuc "github.com/dealspot-cloud/dealdex/internal/usecase/deal"
	searchuc "github.com/dealspot-cloud/dealdex/internal/usecase/search"
	"github.com/dealspot-cloud/dealdex/internal/version"
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

	logger.Info("Starting dealdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("mongodb_database", cfg.MongoDB.Database),
		zap.Strings("es_addresses", cfg.Elasticsearch.Addresses),
	)

	ctx := context.Background()

	// Record store
	store, err := mongo.NewStore(mongo.Config{
		URI:      cfg.MongoDB.URI,
		Database: cfg.MongoDB.Database,
	})
	if err != nil {
		logger.Fatal("Failed to create mongodb store", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.WaitForReady(ctx, time.Duration(cfg.MongoDB.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("MongoDB not ready", zap.Error(err))
	}
	logger.Info("Connected to MongoDB")

	// Search index
	esClient, err := es.NewClient(es.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create elasticsearch client", zap.Error(err))
	}

	if err := esClient.WaitForReady(ctx, time.Duration(cfg.Elasticsearch.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Elasticsearch not ready", zap.Error(err))
	}
	logger.Info("Connected to Elasticsearch", zap.String("index", cfg.Elasticsearch.Index))

	// Register indexing metrics explicitly (no init())
	metrics.RegisterIndexingMetrics()

	// Repositories
	dealRepo := dealrepo.New(store.Collection(mongo.CollectionDeals))
	categoryRepo := categoryrepo.New(store.Collection(mongo.CollectionCategories))
	commentRepo := commentrepo.New(store.Collection(mongo.CollectionComments))
	searchRepo := searchrepo.New(esClient).WithIndex(cfg.Elasticsearch.Index)

	// Use case services
	dealSvc := dealuc.New(dealRepo, searchRepo, categoryRepo, commentRepo).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	searchSvc := searchuc.New(searchRepo).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	// Chi server with dependency health probes
	server := chiTransport.NewServer(dealSvc, searchSvc, logger,
		chiTransport.HealthChecker{
			Name: "mongodb",
			Check: func(r *http.Request) error {
				pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
				defer cancel()
				return store.Ping(pingCtx)
			},
		},
		chiTransport.HealthChecker{
			Name: "elasticsearch",
			Check: func(r *http.Request) error {
				pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
				defer cancel()
				return esClient.Ping(pingCtx)
			},
		},
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.JWTAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
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
