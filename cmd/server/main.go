package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/disaster-events-service/internal/adapter/firebase"
	httpadapter "github.com/couchcryptid/disaster-events-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-events-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-events-service/internal/adapter/model"
	"github.com/couchcryptid/disaster-events-service/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/disaster-events-service/internal/adapter/redis"
	"github.com/couchcryptid/disaster-events-service/internal/adapter/tfserving"
	"github.com/couchcryptid/disaster-events-service/internal/config"
	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/couchcryptid/disaster-events-service/internal/observability"
	"github.com/couchcryptid/disaster-events-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The primary store is the system of record; without it there is nothing to serve.
	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		logger.Error("failed to connect to primary store", "error", err)
		os.Exit(1)
	}
	store := postgres.NewEventStore(db, logger)
	if err := store.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		_ = db.Close()
		os.Exit(1)
	}
	logger.Info("primary store connected")

	var closers []namedCloser

	predictor := loadPredictor(ctx, cfg, logger)

	mirror, mirrorCloser := initMirror(ctx, cfg, logger)
	if mirrorCloser != nil {
		closers = append(closers, namedCloser{"redis client", mirrorCloser})
	}

	var alerts domain.AlertPublisher
	if cfg.AlertsEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		alerts = writer
		closers = append(closers, namedCloser{"kafka writer", writer})
		logger.Info("high severity alerts enabled", "topic", cfg.KafkaTopic, "threshold", cfg.AlertThreshold)
	} else {
		logger.Info("high severity alerts disabled")
	}

	svc := service.New(store, service.Options{
		Predictor:      predictor,
		Mirror:         mirror,
		Alerts:         alerts,
		AlertThreshold: cfg.AlertThreshold,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error(c.name+" close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("primary store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

type namedCloser struct {
	name string
	io.Closer
}

// loadPredictor returns nil when no model could be loaded; events are then
// stored without a prediction.
func loadPredictor(ctx context.Context, cfg *config.Config, logger *slog.Logger) domain.Predictor {
	if cfg.ModelServingURL != "" {
		client := tfserving.NewClient(cfg.ModelServingURL, cfg.ModelName, cfg.ModelTimeout)
		if err := client.CheckAvailable(ctx); err != nil {
			logger.Warn("severity model unavailable", "error", err, "url", cfg.ModelServingURL, "model", cfg.ModelName)
			return nil
		}
		logger.Info("severity model served remotely", "url", cfg.ModelServingURL, "model", cfg.ModelName)
		return client
	}

	m, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Warn("severity model unavailable", "error", err, "path", cfg.ModelPath)
		return nil
	}
	logger.Info("severity model loaded", "path", cfg.ModelPath)
	return m
}

// initMirror returns a nil mirror when none is configured or initialization
// failed. The closer is non-nil only for clients holding connections.
func initMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Mirror, io.Closer) {
	switch cfg.MirrorBackend {
	case config.MirrorFirebase:
		client, err := firebase.Open(cfg.FirebaseDatabaseURL, cfg.FirebasePath, cfg.FirebaseCredentialsPath, cfg.MirrorTimeout, logger)
		if err != nil {
			logger.Warn("firebase mirror unavailable", "error", err)
			return nil, nil
		}
		logger.Info("firebase mirror enabled",
			"database_url", cfg.FirebaseDatabaseURL,
			"path", cfg.FirebasePath,
			"authenticated", client.Authenticated())
		return client, nil

	case config.MirrorRedis:
		pingCtx, cancel := context.WithTimeout(ctx, cfg.MirrorTimeout)
		defer cancel()
		client, err := redisadapter.Open(pingCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis mirror unavailable", "error", err)
			return nil, nil
		}
		logger.Info("redis mirror enabled", "stream", cfg.RedisStream)
		return redisadapter.NewMirror(client, cfg.RedisStream, logger), client

	default:
		logger.Info("mirror store disabled")
		return nil, nil
	}
}
