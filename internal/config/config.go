package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	AccessTTL     time.Duration
	EmailTokenTTL time.Duration

	// TTL for cached user lookups. Per-entry expiry is further clamped to the
	// remaining lifetime of the access token that resolved the user.
	UserCacheTTL time.Duration

	CORSOrigins []string

	MaxBodyBytes int64

	AuthRateLimit  int
	AuthRateWindow time.Duration
	APIRateLimit   int
	APIRateWindow  time.Duration

	AdminEmail    string
	AdminPassword string

	OTLPEndpoint string
}

func Load() Config {
	// Best effort: env vars win over .env contents.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8000),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:     getEnvDuration("JWT_EXPIRATION_TIME", time.Hour),
		EmailTokenTTL: getEnvDuration("EMAIL_TOKEN_TTL", 24*time.Hour),

		UserCacheTTL: getEnvDuration("USER_CACHE_TTL", time.Hour),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),

		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		APIRateLimit:   getEnvInt("API_RATE_LIMIT", 120),
		APIRateWindow:  getEnvDuration("API_RATE_WINDOW", time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("POSTGRES_HOST", "127.0.0.1")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "contacthub")
	pass := getEnv("POSTGRES_PASSWORD", "contacthub")
	name := getEnv("POSTGRES_DB", "contacthub")
	ssl := getEnv("POSTGRES_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

// getEnvDuration accepts either a Go duration string ("90s", "1h")
// or a bare number of seconds, matching older deployments.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
