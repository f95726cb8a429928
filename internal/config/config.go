package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                     string
	Environment              string // "development" or "production"
	RedisURL                 string
	CacheDir                 string
	FaceitAPIKey             string
	ChallengermodeRefreshKey string
	TrustedProxies           string
}

func Load() (*Config, error) {
	// Load .env file (OK if it fails in production)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg := &Config{
		Port:                     getEnv("PORT", "8080"),
		Environment:              getEnv("ENVIRONMENT", "development"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		CacheDir:                 getEnv("CACHE_DIR", "data/cache"),
		FaceitAPIKey:             os.Getenv("FACEIT_API_KEY"),
		ChallengermodeRefreshKey: os.Getenv("CHALLENGERMODE_REFRESH_KEY"),
		TrustedProxies:           os.Getenv("TRUSTED_PROXIES"),
	}

	// Validate required fields
	if cfg.FaceitAPIKey == "" {
		return nil, fmt.Errorf("FACEIT_API_KEY environment variable is required")
	}
	if cfg.ChallengermodeRefreshKey == "" {
		return nil, fmt.Errorf("CHALLENGERMODE_REFRESH_KEY environment variable is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
