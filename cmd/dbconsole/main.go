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

	"github.com/kailas-cloud/dbconsole/internal/config"
	"github.com/kailas-cloud/dbconsole/internal/db"
	"github.com/kailas-cloud/dbconsole/internal/db/memory"
	dbRedis "github.com/kailas-cloud/dbconsole/internal/db/redis"
	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	"github.com/kailas-cloud/dbconsole/internal/domain/point"
	logpkg "github.com/kailas-cloud/dbconsole/internal/logger"
	"github.com/kailas-cloud/dbconsole/internal/metrics"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
	"github.com/kailas-cloud/dbconsole/internal/repository/savedquery"
	chiTransport "github.com/kailas-cloud/dbconsole/internal/transport/chi"
	"github.com/kailas-cloud/dbconsole/internal/transport/engine"
	healthuc "github.com/kailas-cloud/dbconsole/internal/usecase/health"
	indexuc "github.com/kailas-cloud/dbconsole/internal/usecase/index"
	queryuc "github.com/kailas-cloud/dbconsole/internal/usecase/query"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
	uploaduc "github.com/kailas-cloud/dbconsole/internal/usecase/upload"
	"github.com/kailas-cloud/dbconsole/internal/version"
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

	logger.Info("Starting dbconsole API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.BaseURL),
		zap.String("dialect", cfg.Engine.Dialect),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
	)

	// Register console metrics explicitly (no init())
	metrics.RegisterEngineMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()
	store, persistent := openStore(ctx, cfg, logger)
	defer store.Close()

	dialect, err := querybuilder.ParseDialect(cfg.Engine.Dialect)
	if err != nil {
		logger.Fatal("Unknown query dialect", zap.Error(err))
	}
	builder := querybuilder.New(dialect)

	engineClient := engine.NewClient(&engine.Config{
		BaseURL:        cfg.Engine.BaseURL,
		Timeout:        time.Duration(cfg.Engine.TimeoutSec) * time.Second,
		RateLimitRPS:   cfg.Engine.RateLimitRPS,
		RateLimitBurst: cfg.Engine.RateLimitBurst,
		Logger:         logger.Named("engine"),
	})

	// Create repositories and use case services
	savedRepo := savedquery.New(store, cfg.Redis.KeyPrefix, metrics.SavedQueryTotal, logger)

	querySvc := queryuc.New(engineClient, savedRepo, queryuc.Config{
		HistoryCapacity: cfg.Query.HistoryCapacity,
		Tables:          cfg.Query.Tables,
		Logger:          logger,
	})

	var seed []point.Point
	if cfg.Search.SeedDemo {
		seed = point.Seed()
	}
	spatialCtl := spatialuc.New(engineClient, builder, spatialuc.Config{
		Table:           cfg.Search.Table,
		HistoryCapacity: cfg.Search.HistoryCapacity,
		Seed:            seed,
		Logger:          logger,
	})

	indexSvc := indexuc.New(engineClient, builder, cfg.Query.IndexTable, logger)
	uploadSvc := uploaduc.New(engineClient, logger)

	// The in-memory store cannot fail, so only a real backend is health-checked.
	var pinger healthuc.StorePinger
	if persistent {
		pinger = store
	}
	healthSvc := healthuc.New(engineClient, pinger)

	// Create chi server
	server := chiTransport.NewServer(querySvc, spatialCtl, indexSvc, uploadSvc, healthSvc, chiTransport.Options{
		Limits:         area.Limits{MinRadiusKm: cfg.Search.MinRadiusKm, MaxRadiusKm: cfg.Search.MaxRadiusKm},
		MaxUploadBytes: cfg.HTTP.MaxUploadMB << 20,
	}, logger)

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

// openStore connects to Redis when addrs are configured and falls back to memory otherwise.
// The second result reports whether the store outlives the process.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, bool) {
	if len(cfg.Redis.Addrs) == 0 {
		logger.Info("No redis configured, keeping saved query in memory")
		return memory.NewStore(), false
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create redis store", zap.Error(err))
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to redis")
	return store, true
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ctx := logpkg.With(logpkg.ContextWithLogger(r.Context(), logger), zap.String("request_id", requestID))
			reqLogger := logpkg.FromContext(ctx)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// One line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
