package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the environment-driven service configuration.
type Config struct {
	Port     string
	LogLevel string

	AWSRegion     string
	ClaudeModelID string
	EmbedModelID  string
	EmbedDim      int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration
	CacheEnabled  bool

	ModelInstanceID string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("API_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", ""),
		EmbedModelID:  getEnv("EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		EmbedDim:      getEnvInt("EMBED_DIM", 1024),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ragbuilder"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      getEnvDuration("REDIS_TTL", 30*time.Minute),
		CacheEnabled:  getEnvBool("CACHE_ENABLED", true),

		ModelInstanceID: getEnv("MODEL_INSTANCE_ID", "RAG-default-v1"),
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
