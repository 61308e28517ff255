package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/triage-ai/crawlgate/internal/api"
	"github.com/triage-ai/crawlgate/internal/patterns"
	"github.com/triage-ai/crawlgate/internal/paywall"
	"github.com/triage-ai/crawlgate/internal/storage"
	"github.com/triage-ai/crawlgate/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("CRAWLGATE_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("CRAWLGATE_HTTP_PORT", "8080")
	mode := envOrDefault("CRAWLGATE_MODE", paywall.ModeDetect)
	threshold := envOrDefaultFloat("CRAWLGATE_THRESHOLD", paywall.DefaultThreshold)
	patternsFile := os.Getenv("CRAWLGATE_PATTERNS_FILE")
	apiKeyHash := os.Getenv("CRAWLGATE_API_KEY_HASH")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	postgresDSN := os.Getenv("POSTGRES_DSN")

	logger.Info("starting crawlgate server",
		zap.String("http_port", httpPort),
		zap.String("mode", mode),
		zap.Float64("threshold", threshold),
	)

	// Pattern registry — built-ins first, then file patterns, then Postgres
	// customs, so operator overrides win by name.
	registry := patterns.NewWithDefaults()

	if patternsFile != "" {
		defs, err := patterns.LoadFile(patternsFile, logger)
		if err != nil {
			logger.Fatal("failed to load pattern file",
				zap.String("path", patternsFile),
				zap.Error(err),
			)
		}
		n := patterns.LoadInto(registry, defs)
		logger.Info("loaded pattern file",
			zap.String("path", patternsFile),
			zap.Int("patterns", n),
		)
	}

	// Postgres pattern store (optional)
	var pgStore *store.Store
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		pgStore = store.NewStore(db)
		logger.Info("postgres connected")

		stored, err := pgStore.ListPatterns(context.Background())
		if err != nil {
			logger.Fatal("failed to load stored patterns", zap.Error(err))
		}
		for _, sp := range stored {
			registry.Upsert(sp.Name, patterns.Compile(sp.Name, sp.Definition))
		}
		logger.Info("loaded stored patterns", zap.Int("patterns", len(stored)))
	} else {
		logger.Info("no POSTGRES_DSN set, custom patterns will not persist")
	}

	// Event sink — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Paywall facade
	pw := paywall.New(paywall.Config{
		Mode:      mode,
		Threshold: &threshold,
		Registry:  registry,
		Sink:      storage.NewResultSink(writer, mode),
		Logger:    logger,
	})

	// HTTP API server
	deps := &api.Dependencies{
		Paywall:    pw,
		Store:      pgStore,
		Logger:     logger,
		APIKeyHash: apiKeyHash,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("crawlgate server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
