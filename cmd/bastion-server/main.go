package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/vantara-media/bastion/internal/api"
	"github.com/vantara-media/bastion/internal/audit"
	"github.com/vantara-media/bastion/internal/config"
	"github.com/vantara-media/bastion/internal/detectors"
	"github.com/vantara-media/bastion/internal/engine"
	"github.com/vantara-media/bastion/internal/notify"
	"github.com/vantara-media/bastion/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := mustBuildLogger(cfg.LoggingLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting bastion server",
		zap.String("service", cfg.ServiceName),
		zap.String("sensitivity_level", cfg.SensitivityLevel),
		zap.String("blocking_strategy", cfg.BlockingStrategy),
		zap.Duration("detector_timeout", cfg.Detectors.Timeout),
	)

	// Detector capabilities, in verdict order.
	dets := []engine.Detector{
		detectors.NewVPNDetector(),
		detectors.NewNetworkDetector(),
		detectors.NewAnomalyDetector(),
		detectors.NewFingerprintDetector(),
	}

	// Security event log: ClickHouse or structured log fallback.
	var writer audit.Writer
	if cfg.Audit.ClickHouseDSN != "" {
		chWriter, err := audit.NewClickHouseWriter(cfg.Audit.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer", zap.Error(err))
			writer = audit.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse audit writer connected")
		}
	} else {
		writer = audit.NewLogWriter(logger)
		logger.Info("no clickhouse DSN set, using log writer")
	}
	events := audit.NewLogger(cfg.LoggingLevel, cfg.ServiceName, writer)
	defer events.Close()

	// ClickHouse reader for the event listing endpoint.
	var reader *audit.Reader
	if cfg.Audit.ClickHouseDSN != "" {
		reader, err = audit.NewReader(cfg.Audit.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
			reader = nil
		} else {
			defer func() { _ = reader.Close() }()
		}
	}

	// Breach notification sink.
	var notifier engine.Notifier
	if cfg.NotificationEndpoint != "" {
		notifier = notify.NewWebhook(cfg.NotificationEndpoint, cfg.Notify.Timeout, logger)
		logger.Info("breach notifications enabled", zap.String("endpoint", cfg.NotificationEndpoint))
	}

	eng := engine.New(cfg, dets, events, notifier, logger)

	// Optional Postgres credential store; static API key otherwise.
	var credStore *store.Store
	if cfg.Auth.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.Auth.PostgresDSN)
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
		credStore = store.NewStore(db)
		logger.Info("postgres credential store connected")
	} else {
		logger.Info("no postgres DSN set, using static API key auth")
	}

	deps := &api.Dependencies{
		Engine:   eng,
		Store:    credStore,
		Events:   reader,
		Cfg:      cfg,
		Logger:   logger,
		CacheTTL: cfg.Auth.CacheTTL,
	}
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("bastion server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case config.LogDebug:
		zapLevel = zapcore.DebugLevel
	case config.LogWarning:
		zapLevel = zapcore.WarnLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
