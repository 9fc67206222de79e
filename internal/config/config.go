package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/project-management-api/internal/constants"
)

type Config struct {
	Port               string
	GinMode            string
	AppVersion         string
	DBDriver           string
	DatabaseURL        string
	RedisURL           string
	CacheTTL           time.Duration
	JWTSecret          string
	JWTAccessTTL       time.Duration
	JWTRefreshTTL      time.Duration
	LoginRatePerSecond float64
	LoginRateBurst     int
	SentryDSN          string
	OpenAIAPIKey       string
}

// Load reads configuration from the environment, after applying an optional .env file.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		AppVersion:         getEnv("APP_VERSION", "dev"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:        getEnv("DATABASE_URL", "app.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		CacheTTL:           getDuration("CACHE_TTL", constants.DefaultCacheTTL),
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTAccessTTL:       getDuration("JWT_ACCESS_TTL", time.Hour),
		JWTRefreshTTL:      getDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
		LoginRatePerSecond: getFloat("LOGIN_RATE_PER_SECOND", 1),
		LoginRateBurst:     getInt("LOGIN_RATE_BURST", 5),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		log.Printf("config: invalid %s=%q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}
