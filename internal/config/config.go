package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDSN       string
	RedisURL          string
	JWTSecret         string
	GeminiAPIKey      string
	ServerPort        string
	BaseURL           string
	CORSOrigin        string
	AllowRegistration bool
	DashboardCacheTTL int // seconds
	ExportDir         string
}

// Load reads the .env file (if present) and builds the config with defaults
func Load() *Config {
	godotenv.Load()

	return &Config{
		DatabaseDSN:       getEnv("DB_DSN", ""),
		RedisURL:          getEnv("REDIS_URL", ""), // empty = dashboard cache disabled
		JWTSecret:         getEnv("JWT_SECRET", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AllowRegistration: getEnv("ALLOW_REGISTRATION", "false") == "true",
		DashboardCacheTTL: getEnvAsInt("DASHBOARD_CACHE_TTL", 60),
		ExportDir:         getEnv("EXPORT_DIR", "./exports"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
