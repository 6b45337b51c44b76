package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Chunk   ChunkConfig
	LLM     LLMConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr          string
	MaxUploadSize int64
}

// StorageConfig holds upload/output/bookkeeping locations
type StorageConfig struct {
	UploadDir   string
	OutputDir   string
	StateDBPath string
}

// ChunkConfig holds text windowing parameters
type ChunkConfig struct {
	MaxLen  int
	Overlap int
	Workers int
}

// LLMConfig holds completion API configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          getEnv("HTTP_ADDR", ":5000"),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_MB", 16) * 1024 * 1024,
		},
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			OutputDir:   getEnv("OUTPUT_DIR", "processed_data"),
			StateDBPath: getEnv("STATE_DB_PATH", "ratesheet.db"),
		},
		Chunk: ChunkConfig{
			MaxLen:  getEnvAsInt("CHUNK_SIZE", 8000),
			Overlap: getEnvAsInt("CHUNK_OVERLAP", 500),
			Workers: getEnvAsInt("EXTRACT_WORKERS", 1),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: 0.0,
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 10000),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Chunk.MaxLen <= 0 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be positive", ErrInvalidInput)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.MaxLen {
		return NewAppError("CONFIG_ERROR", "CHUNK_OVERLAP must satisfy 0 <= overlap < CHUNK_SIZE", ErrInvalidInput)
	}
	if c.Chunk.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Server.MaxUploadSize <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	return nil
}
