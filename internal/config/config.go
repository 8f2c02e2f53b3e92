// Package config provides configuration management for BellyBuzz.
// It loads settings from environment variables with the BELLYBUZZ_ prefix
// and provides sensible defaults for all configuration options. A .env file
// in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration settings for the BellyBuzz application.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Embedding EmbeddingConfig
	Places    PlacesConfig
	Ingest    IngestConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 8090)
	Host string // Server host (default: 127.0.0.1)

	// RateLimitPerSecond throttles requests per client IP (default: 10).
	// Zero disables rate limiting.
	RateLimitPerSecond float64

	// RateLimitBurst is the per-client burst allowance (default: 20).
	RateLimitBurst int
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	// Engine selects the backend: sqlite or postgres (default: sqlite).
	Engine string

	// SQLitePath is the database file path for the sqlite engine
	// (default: ./data/bellybuzz.db).
	SQLitePath string

	// PostgresDSN is the connection string for the postgres engine.
	PostgresDSN string
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: ollama, openai, or none
	// (default: ollama). "none" disables semantic search entirely.
	Provider string

	OllamaURL   string // Ollama API URL (default: http://localhost:11434)
	OllamaModel string // Ollama embedding model (default: nomic-embed-text)

	OpenAIAPIKey string // OpenAI API key (required for the openai provider)
	OpenAIModel  string // OpenAI embedding model (default: text-embedding-3-small)

	// RequestsPerSecond rate-limits provider calls (default: 5).
	RequestsPerSecond float64
}

// PlacesConfig contains mapping/enrichment provider configuration.
type PlacesConfig struct {
	// APIKey for the mapping provider. Empty disables enrichment.
	APIKey string

	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string
}

// IngestConfig contains ingestion pipeline configuration.
type IngestConfig struct {
	// City attributed to ingested mentions (default: toronto).
	City string

	// Workers is the concurrent mention worker count (default: 4).
	Workers int

	// WeightsPath points to the YAML source-weight table. Empty uses the
	// built-in defaults.
	WeightsPath string

	// Schedule is a cron expression for recurring ingestion runs. Empty
	// means one-shot.
	Schedule string
}

// Load reads configuration from the environment, after loading a .env file
// when one exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvInt("BELLYBUZZ_PORT", 8090),
			Host:               getEnv("BELLYBUZZ_HOST", "127.0.0.1"),
			RateLimitPerSecond: getEnvFloat("BELLYBUZZ_RATE_LIMIT", 10),
			RateLimitBurst:     getEnvInt("BELLYBUZZ_RATE_BURST", 20),
		},
		Storage: StorageConfig{
			Engine:      getEnv("BELLYBUZZ_STORAGE_ENGINE", "sqlite"),
			SQLitePath:  getEnv("BELLYBUZZ_SQLITE_PATH", "./data/bellybuzz.db"),
			PostgresDSN: getEnv("BELLYBUZZ_POSTGRES_DSN", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:          getEnv("BELLYBUZZ_EMBEDDING_PROVIDER", "ollama"),
			OllamaURL:         getEnv("BELLYBUZZ_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("BELLYBUZZ_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:      getEnv("BELLYBUZZ_OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("BELLYBUZZ_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			RequestsPerSecond: getEnvFloat("BELLYBUZZ_EMBEDDING_RATE", 5),
		},
		Places: PlacesConfig{
			APIKey:  getEnv("BELLYBUZZ_MAPS_API_KEY", ""),
			BaseURL: getEnv("BELLYBUZZ_MAPS_BASE_URL", ""),
		},
		Ingest: IngestConfig{
			City:        getEnv("BELLYBUZZ_CITY", "toronto"),
			Workers:     getEnvInt("BELLYBUZZ_INGEST_WORKERS", 4),
			WeightsPath: getEnv("BELLYBUZZ_WEIGHTS_PATH", ""),
			Schedule:    getEnv("BELLYBUZZ_INGEST_SCHEDULE", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: BELLYBUZZ_POSTGRES_DSN is required for the postgres engine")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}

	switch c.Embedding.Provider {
	case "ollama", "none":
	case "openai":
		if c.Embedding.OpenAIAPIKey == "" {
			return fmt.Errorf("config: BELLYBUZZ_OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable parsed as int, or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable parsed as float64, or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
