package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env        string
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPoolMin  int
	DBPoolMax  int

	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	XServiceURL  string
	MLServiceURL string

	SourceTimeout      time.Duration
	SourceRatePerSec   float64
	EnrichmentCacheTTL time.Duration

	HistoryLimit int
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "brain-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "brain_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "brain_password"),
		DBName:     getEnv("DB_NAME", "brain_db"),
		DBPoolMin:  getEnvInt("DB_POOL_MIN", 2),
		DBPoolMax:  getEnvInt("DB_POOL_MAX", 10),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:      getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT_SECONDS", 120*time.Second),

		XServiceURL:  getEnv("X_SERVICE_URL", "http://x-service:8080"),
		MLServiceURL: getEnv("ML_SERVICE_URL", "http://ml-service:8080"),

		SourceTimeout:      getEnvDuration("CONTEXT_SOURCE_TIMEOUT_SECONDS", 5*time.Second),
		SourceRatePerSec:   getEnvFloat("CONTEXT_SOURCE_RATE_PER_SEC", 20),
		EnrichmentCacheTTL: getEnvDuration("ENRICHMENT_CACHE_TTL_SECONDS", 30*time.Second),

		HistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 20),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return fallback
}
