package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL   string
	RunMigrations bool

	RedisURL string

	JWTSecret string

	CORSOrigins string

	ResendAPIKey string
	FromEmail    string

	BusBackend         string
	PublishTimeout     time.Duration
	PublishWorkers     int
	PublishQueueSize   int
	DeliveryTimeout    time.Duration
	ConnBufferSize     int
	PingInterval       time.Duration
	PreferenceCacheTTL time.Duration

	CatalogPath string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getBoolEnv("RUN_MIGRATIONS", true),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),

		BusBackend:         getEnv("BUS_BACKEND", "redis"),
		PublishTimeout:     getDurationEnv("PUBLISH_TIMEOUT", 2*time.Second),
		PublishWorkers:     getIntEnv("PUBLISH_WORKERS", 4),
		PublishQueueSize:   getIntEnv("PUBLISH_QUEUE_SIZE", 256),
		DeliveryTimeout:    getDurationEnv("DELIVERY_TIMEOUT", 250*time.Millisecond),
		ConnBufferSize:     getIntEnv("CONN_BUFFER_SIZE", 16),
		PingInterval:       getDurationEnv("WS_PING_INTERVAL", 30*time.Second),
		PreferenceCacheTTL: getDurationEnv("PREFERENCE_CACHE_TTL", 5*time.Minute),

		CatalogPath: getEnv("CATALOG_PATH", ""),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
