package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "WhitelistChecker"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultGeminiModel       = "gemini-1.5-flash"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultRevealDelay       = 1200 * time.Millisecond
	defaultLookupTimeout     = 5 * time.Second
	defaultGenerationTimeout = 8 * time.Second
	defaultSessionTTL        = 30 * time.Minute
	defaultOracleCacheTTL    = 6 * time.Hour
	defaultCheckRateLimit    = 30
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	GeminiAPIKey      string
	GeminiModel       string
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
	RevealDelay       time.Duration
	LookupTimeout     time.Duration
	GenerationTimeout time.Duration
	SessionTTL        time.Duration
	OracleCacheTTL    time.Duration
	CheckRateLimit    int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:      getEnv("APP_NAME", defaultAppName),
		AppEnv:       strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:         getEnv("PORT", defaultPort),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:  getEnv("GEMINI_MODEL", defaultGeminiModel),
	}

	durations := []struct {
		name     string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", defaultShutdownDelay, &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", defaultIdempotencyTTL, &cfg.IdempotencyTTL},
		{"REVEAL_DELAY", defaultRevealDelay, &cfg.RevealDelay},
		{"LOOKUP_TIMEOUT", defaultLookupTimeout, &cfg.LookupTimeout},
		{"GENERATION_TIMEOUT", defaultGenerationTimeout, &cfg.GenerationTimeout},
		{"SESSION_TTL", defaultSessionTTL, &cfg.SessionTTL},
		{"ORACLE_CACHE_TTL", defaultOracleCacheTTL, &cfg.OracleCacheTTL},
	}
	for _, d := range durations {
		v, err := getDuration(d.name, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	cfg.CheckRateLimit = defaultCheckRateLimit
	if v := os.Getenv("CHECK_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHECK_RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.CheckRateLimit = n
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a local development environment,
// where in-memory backends stand in for Postgres and Redis.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts either KEY_SECONDS as an integer or KEY as a Go duration string.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
