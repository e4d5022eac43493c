package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	HTTPPort              int
	GRPCPort              int
	GRPCReflectionEnabled bool
	DBPath                string
	DBDriver              string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	CacheTTL              time.Duration
	UpstreamBaseURL       string
	UpstreamCookieURL     string
	UpstreamTimeout       time.Duration
	UpstreamRPS           int
	CORSAllowedOrigins    []string
	HistoryStart          time.Time
	NewsLimit             int
}

// LoadFromEnv loads configuration from environment variables. Unparseable
// values fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		HTTPPort:              getEnvInt("HTTP_PORT", 5000),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		DBPath:                getEnv("DB_PATH", "./data/stockadvisor.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		UpstreamBaseURL:       getEnv("UPSTREAM_BASE_URL", "https://query2.finance.yahoo.com"),
		UpstreamCookieURL:     getEnv("UPSTREAM_COOKIE_URL", "https://fc.yahoo.com"),
		UpstreamTimeout:       getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRPS:           getEnvInt("UPSTREAM_RPS", 5),
		CORSAllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HistoryStart:          getEnvDate("HISTORY_START", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		NewsLimit:             getEnvInt("NEWS_LIMIT", 5),
	}
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvDate(key string, fallback time.Time) time.Time {
	t, err := time.Parse(dateLayout, getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return t
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
