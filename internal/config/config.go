package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrMissingDatabaseURL is returned by Load when DATABASE_URL is unset.
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	// ErrMissingJWTSecret is returned by ValidateServer when JWT_SECRET is unset.
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	// ErrMissingRabbitMQURL is returned by ValidateWorker when RABBITMQ_URL is unset.
	ErrMissingRabbitMQURL = errors.New("RABBITMQ_URL is required for the worker")
)

// Config holds application configuration
type Config struct {
	DatabaseURL   string
	RunMigrations bool

	ServerPort      string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL     string
	FeedCacheTTL time.Duration
	FeedMaxLimit int

	RabbitMQURL      string
	RabbitMQPrefetch int
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration

	CORSReloadInterval time.Duration

	OTELEnabled    bool
	OTELEndpoint   string
	MetricsEnabled bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment values win.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:    getEnvBool("WORKER_DEBUG_MODE", false),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 24*time.Hour),
		RedisURL:           getEnv("REDIS_URL", ""),
		FeedCacheTTL:       getEnvDuration("FEED_CACHE_TTL", 30*time.Second),
		FeedMaxLimit:       getEnvInt("FEED_MAX_LIMIT", 100),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 1),
		DLQRetention:       getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:      getEnvDuration("DLQ_GC_INTERVAL", time.Hour),
		CORSReloadInterval: getEnvDuration("CORS_RELOAD_INTERVAL", 30*time.Second),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return cfg, nil
}

// ValidateServer checks the settings only the API server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative, got %s", c.TokenTTL)
	}
	return nil
}

// ValidateWorker checks the settings only the feed worker needs.
func (c *Config) ValidateWorker() error {
	if c.RabbitMQURL == "" {
		return ErrMissingRabbitMQURL
	}
	if c.RabbitMQPrefetch < 1 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", c.RabbitMQPrefetch)
	}
	return nil
}

// EventsEnabled reports whether post events should be published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// CacheEnabled reports whether the Redis feed cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
