package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Import pipeline
	ImportMaxBytes  int64
	ImportBatchSize int
	WorkerCount     int

	// Storage
	StoragePath string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		DatabaseURL:     mustGetEnv("DATABASE_URL"),
		RedisURL:        mustGetEnv("REDIS_URL"),
		ImportMaxBytes:  int64(getEnvAsIntOrDefault("IMPORT_MAX_BYTES", 50*1024*1024)),
		ImportBatchSize: getEnvAsIntOrDefault("IMPORT_BATCH_SIZE", 250),
		WorkerCount:     getEnvAsIntOrDefault("IMPORT_WORKERS", 2),
		StoragePath:     getEnvOrDefault("STORAGE_PATH", "./uploads"),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
