package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	strutil "passport/pkg/platform/strings"
)

// Exchange timeouts applied when the environment does not override them.
const (
	DefaultProposeTimeout = 24 * time.Hour
	DefaultAcceptTimeout  = 24 * time.Hour
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	AdminToken     string
	JWTSigningKey  string
	JWTIssuer      string
	ProposeTimeout time.Duration
	AcceptTimeout  time.Duration
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	RateLimit      RateLimitConfig
}

// DatabaseConfig selects the PostgreSQL backend. An empty URL keeps every
// store in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables the fact read cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig enables the outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
}

// RateLimitConfig bounds authenticated mutations per caller. Zero Requests
// disables the limit.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getenv("PASSPORT_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "json"),
		AdminToken:    os.Getenv("PASSPORT_ADMIN_TOKEN"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getenv("JWT_ISSUER", "passport"),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Topic: getenv("KAFKA_TOPIC", "passport.events"),
		},
	}
	cfg.Kafka.Brokers = strutil.SplitList(os.Getenv("KAFKA_BROKERS"), ",")

	var err error
	if cfg.ProposeTimeout, err = durationEnv("PASSPORT_PROPOSE_TIMEOUT", DefaultProposeTimeout); err != nil {
		return Server{}, err
	}
	if cfg.AcceptTimeout, err = durationEnv("PASSPORT_ACCEPT_TIMEOUT", DefaultAcceptTimeout); err != nil {
		return Server{}, err
	}
	if cfg.ProposeTimeout <= 0 || cfg.AcceptTimeout <= 0 {
		return Server{}, fmt.Errorf("exchange timeouts must be positive")
	}
	if cfg.Kafka.RelayInterval, err = durationEnv("KAFKA_RELAY_INTERVAL", time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxOpenConns, err = intEnv("DATABASE_MAX_OPEN_CONNS", 20); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxIdleConns, err = intEnv("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = intEnv("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.DialTimeout, err = durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.ReadTimeout, err = durationEnv("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.WriteTimeout, err = durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.CacheTTL, err = durationEnv("REDIS_CACHE_TTL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Requests, err = intEnv("PASSPORT_RATE_LIMIT", 120); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Window, err = durationEnv("PASSPORT_RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window <= 0 {
		return Server{}, fmt.Errorf("rate limit window must be positive")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
