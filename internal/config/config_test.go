package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFirebaseURL = "https://dg-test-default-rtdb.firebaseio.com"
	testRedisURL    = "redis://localhost:6379/0"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "postgres://disaster_user@localhost:5432/disaster_management?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, "disaster_severity_model.yaml", cfg.ModelPath)
	assert.Empty(t, cfg.ModelServingURL)
	assert.Equal(t, "disaster_severity", cfg.ModelName)
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
	assert.Equal(t, MirrorNone, cfg.MirrorBackend)
	assert.Equal(t, "firebase_credentials.json", cfg.FirebaseCredentialsPath)
	assert.Equal(t, "events", cfg.FirebasePath)
	assert.Equal(t, "events", cfg.RedisStream)
	assert.Equal(t, 5*time.Second, cfg.MirrorTimeout)
	assert.False(t, cfg.AlertsEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "disaster-alerts", cfg.KafkaTopic)
	assert.InDelta(t, 4.0, cfg.AlertThreshold, 1e-9)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/events")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("DB_MAX_IDLE_CONNS", "4")
	t.Setenv("MODEL_PATH", "/models/severity.yaml")
	t.Setenv("MODEL_SERVING_URL", "http://tfserving:8501")
	t.Setenv("MODEL_NAME", "severity_v2")
	t.Setenv("MODEL_TIMEOUT", "2s")
	t.Setenv("FIREBASE_DATABASE_URL", testFirebaseURL)
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "/secrets/sa.json")
	t.Setenv("FIREBASE_PATH", "/reports/")
	t.Setenv("MIRROR_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_ALERT_TOPIC", "alerts")
	t.Setenv("ALERT_SEVERITY_THRESHOLD", "3.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "postgres://u:p@db:5432/events", cfg.DatabaseURL)
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
	assert.Equal(t, 4, cfg.DBMaxIdleConns)
	assert.Equal(t, "/models/severity.yaml", cfg.ModelPath)
	assert.Equal(t, "http://tfserving:8501", cfg.ModelServingURL)
	assert.Equal(t, "severity_v2", cfg.ModelName)
	assert.Equal(t, 2*time.Second, cfg.ModelTimeout)
	assert.Equal(t, MirrorFirebase, cfg.MirrorBackend)
	assert.Equal(t, testFirebaseURL, cfg.FirebaseDatabaseURL)
	assert.Equal(t, "/secrets/sa.json", cfg.FirebaseCredentialsPath)
	assert.Equal(t, "reports", cfg.FirebasePath)
	assert.Equal(t, 3*time.Second, cfg.MirrorTimeout)
	assert.True(t, cfg.AlertsEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "alerts", cfg.KafkaTopic)
	assert.InDelta(t, 3.5, cfg.AlertThreshold, 1e-9)
}

func TestLoad_EmptyFirebaseCredentialsPath(t *testing.T) {
	t.Setenv("FIREBASE_DATABASE_URL", testFirebaseURL)
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MirrorFirebase, cfg.MirrorBackend)
	assert.Empty(t, cfg.FirebaseCredentialsPath)
}

func TestLoad_RedisURLImpliesRedisMirror(t *testing.T) {
	t.Setenv("REDIS_URL", testRedisURL)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MirrorRedis, cfg.MirrorBackend)
	assert.Equal(t, testRedisURL, cfg.RedisURL)
}

func TestLoad_FirebaseWinsOverRedis(t *testing.T) {
	t.Setenv("REDIS_URL", testRedisURL)
	t.Setenv("FIREBASE_DATABASE_URL", testFirebaseURL)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MirrorFirebase, cfg.MirrorBackend)
}

func TestLoad_MirrorExplicitlyDisabled(t *testing.T) {
	t.Setenv("FIREBASE_DATABASE_URL", testFirebaseURL)
	t.Setenv("MIRROR_BACKEND", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MirrorNone, cfg.MirrorBackend)
}

func TestLoad_FirebaseBackendWithoutURL(t *testing.T) {
	t.Setenv("MIRROR_BACKEND", "firebase")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_DATABASE_URL")
}

func TestLoad_RedisBackendWithoutURL(t *testing.T) {
	t.Setenv("MIRROR_BACKEND", "redis")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_UnknownMirrorBackend(t *testing.T) {
	t.Setenv("MIRROR_BACKEND", "dynamo")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIRROR_BACKEND")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidModelTimeout(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_TIMEOUT")
}

func TestLoad_NegativeMirrorTimeout(t *testing.T) {
	t.Setenv("MIRROR_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIRROR_TIMEOUT")
}

func TestLoad_InvalidPoolSize(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
}

func TestLoad_IdleExceedsOpen(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "2")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_IDLE_CONNS")
}

func TestLoad_InvalidAlertThreshold(t *testing.T) {
	t.Setenv("ALERT_SEVERITY_THRESHOLD", "high")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_SEVERITY_THRESHOLD")
}

func TestLoad_AlertsEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("ALERTS_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_AlertsExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("ALERTS_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AlertsEnabled)
}
