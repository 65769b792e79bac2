package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Mirror backends selectable through MIRROR_BACKEND.
const (
	MirrorFirebase = "firebase"
	MirrorRedis    = "redis"
	MirrorNone     = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Primary store.
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Severity model. MODEL_SERVING_URL takes precedence over MODEL_PATH.
	ModelPath       string
	ModelServingURL string
	ModelName       string
	ModelTimeout    time.Duration

	// Mirror store.
	MirrorBackend           string
	FirebaseDatabaseURL     string
	FirebaseCredentialsPath string
	FirebasePath            string
	RedisURL                string
	RedisStream             string
	MirrorTimeout           time.Duration

	// High-severity alerts.
	AlertsEnabled  bool
	KafkaBrokers   []string
	KafkaTopic     string
	AlertThreshold float64
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	modelTimeout, err := parseDuration("MODEL_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mirrorTimeout, err := parseDuration("MIRROR_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxOpen, err := parsePositiveInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxIdle, err := parsePositiveInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("ALERT_SEVERITY_THRESHOLD", "4"), 64)
	if err != nil {
		return nil, errors.New("invalid ALERT_SEVERITY_THRESHOLD")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:    sharedcfg.EnvOrDefault("DATABASE_URL", "postgres://disaster_user@localhost:5432/disaster_management?sslmode=disable"),
		DBMaxOpenConns: maxOpen,
		DBMaxIdleConns: maxIdle,

		ModelPath:       sharedcfg.EnvOrDefault("MODEL_PATH", "disaster_severity_model.yaml"),
		ModelServingURL: os.Getenv("MODEL_SERVING_URL"),
		ModelName:       sharedcfg.EnvOrDefault("MODEL_NAME", "disaster_severity"),
		ModelTimeout:    modelTimeout,

		FirebaseDatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		FirebaseCredentialsPath: credentialsPath(),
		FirebasePath:            strings.Trim(sharedcfg.EnvOrDefault("FIREBASE_PATH", "events"), "/"),
		RedisURL:                os.Getenv("REDIS_URL"),
		RedisStream:             sharedcfg.EnvOrDefault("REDIS_STREAM", "events"),
		MirrorTimeout:           mirrorTimeout,

		KafkaBrokers:   sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "disaster-alerts"),
		AlertThreshold: threshold,
	}

	cfg.MirrorBackend = mirrorBackend(cfg)
	cfg.AlertsEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("ALERTS_ENABLED"); v != "" {
		cfg.AlertsEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS")
	}
	switch c.MirrorBackend {
	case MirrorFirebase:
		if c.FirebaseDatabaseURL == "" {
			return errors.New("MIRROR_BACKEND is firebase but FIREBASE_DATABASE_URL is not set")
		}
		if c.FirebasePath == "" {
			return errors.New("FIREBASE_PATH must not be empty")
		}
	case MirrorRedis:
		if c.RedisURL == "" {
			return errors.New("MIRROR_BACKEND is redis but REDIS_URL is not set")
		}
	case MirrorNone:
	default:
		return fmt.Errorf("invalid MIRROR_BACKEND %q: want firebase, redis or none", c.MirrorBackend)
	}
	if c.AlertsEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.AlertsEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_ALERT_TOPIC is required when alerts are enabled")
	}
	return nil
}

// mirrorBackend resolves MIRROR_BACKEND, inferring it from which mirror URL is set.
func mirrorBackend(c *Config) string {
	if v := os.Getenv("MIRROR_BACKEND"); v != "" {
		return strings.ToLower(v)
	}
	switch {
	case c.FirebaseDatabaseURL != "":
		return MirrorFirebase
	case c.RedisURL != "":
		return MirrorRedis
	default:
		return MirrorNone
	}
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// credentialsPath keeps an explicitly empty FIREBASE_CREDENTIALS_PATH empty,
// which selects unauthenticated Firebase access.
func credentialsPath() string {
	if v, ok := os.LookupEnv("FIREBASE_CREDENTIALS_PATH"); ok {
		return v
	}
	return "firebase_credentials.json"
}
