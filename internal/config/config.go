package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database — optional mirror of the job registry (empty = disabled)
	DatabaseURL string

	// Queue
	QueueMode string // "inprocess" or "redis"
	RedisURL  string

	// Paths
	OutputDir string
	TempDir   string
	FontFile  string

	// OpenAI (script generation + optional TTS)
	OpenAIKey string

	// Gemini (optional image generation)
	GeminiKey string

	// Images
	ImageProvider string // "picsum" or "gemini"

	// Worker
	MaxConcurrentJobs int
	MaxQueueDepth     int
	SceneParallelism  int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		QueueMode:          getEnv("QUEUE_MODE", "inprocess"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		OutputDir:          getEnv("OUTPUT_DIR", "output"),
		TempDir:            getEnv("TEMP_DIR", os.TempDir()),
		FontFile:           getEnv("FONT_FILE", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		ImageProvider:      getEnv("IMAGE_PROVIDER", "picsum"),
		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 2),
		MaxQueueDepth:      getEnvInt("MAX_QUEUE_DEPTH", 32),
		SceneParallelism:   getEnvInt("SCENE_PARALLELISM", 1),
	}

	if cfg.QueueMode != "inprocess" && cfg.QueueMode != "redis" {
		return nil, fmt.Errorf("QUEUE_MODE must be \"inprocess\" or \"redis\", got %q", cfg.QueueMode)
	}

	if cfg.ImageProvider == "gemini" && cfg.GeminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when IMAGE_PROVIDER=gemini")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
