package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage driver selectors.
const (
	StorageDriverFile = "file"
	StorageDriverS3   = "s3"
)

// Config represents service configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	StorageDriver  string
	StoragePath    string
	StorageBaseURL string
	RenderBucket   string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	EngineRequestsPerMin int
	FetchTimeout         time.Duration
	EngineTimeout        time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from the environment and applies defaults
// where needed. The Gemini API key is deliberately optional: without it every
// job is routed through the local compositor.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		StorageDriver:        getEnv("STORAGE_DRIVER", StorageDriverFile),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:       os.Getenv("STORAGE_BASE_URL"),
		RenderBucket:         getEnv("RENDER_BUCKET", "renders"),
		S3Endpoint:           os.Getenv("S3_ENDPOINT"),
		S3AccessKey:          os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:          os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:             getEnvBool("S3_USE_SSL", false),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		EngineRequestsPerMin: getEnvInt("ENGINE_REQUESTS_PER_MINUTE", 30),
		FetchTimeout:         time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)),
		EngineTimeout:        time.Second * time.Duration(getEnvInt("ENGINE_TIMEOUT_SECONDS", 60)),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = fmt.Sprintf("http://localhost:%s/static", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageDriver == StorageDriverS3 && cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT is required when STORAGE_DRIVER=s3")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
