// Package config holds process-wide configuration, built once at startup and
// passed by reference into every component that needs it.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string

	LLMModel           string
	EmbeddingModel     string
	EmbeddingDimension int

	PostgresDSN string

	DataDir string
	PlotDir string

	HTTPAddr string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present. Missing keys fall back to development defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		PostgresDSN:        getEnv("POSTGRES_DSN", "postgres://localhost:5432/bi-agent?sslmode=disable"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		PlotDir:            getEnv("PLOT_DIR", "./plots"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
