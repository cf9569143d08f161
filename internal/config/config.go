package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogBuiltin  = "builtin"
	CatalogPostgres = "postgres"

	// Google exposes Gemini through an OpenAI-compatible surface.
	DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultLLMModel   = "gemini-2.5-flash"
)

type Config struct {
	Port        string
	MetricsPort string
	LogLevel    string

	APIKey         string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float32
	LLMTimeout     time.Duration

	RedisURL   string
	SessionTTL time.Duration

	DatabaseURL   string
	CatalogSource string

	ChromePath    string
	ExportTimeout time.Duration
}

func Load() (*Config, error) {
	// .env from the project root when run via go run, then the working dir
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		APIKey:        os.Getenv("API_KEY"),
		LLMBaseURL:    getEnv("LLM_BASE_URL", DefaultLLMBaseURL),
		LLMModel:      getEnv("LLM_MODEL", DefaultLLMModel),
		RedisURL:      os.Getenv("REDIS_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CatalogSource: getEnv("CATALOG_SOURCE", CatalogBuiltin),
		ChromePath:    os.Getenv("CHROME_BIN"),
	}

	var err error
	if cfg.LLMTemperature, err = getFloat("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExportTimeout, err = getDuration("EXPORT_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CatalogSource {
	case CatalogBuiltin:
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("CATALOG_SOURCE=%s requires DATABASE_URL", CatalogPostgres)
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	// go-openai omits a zero temperature from the request, so 0 would
	// silently fall back to the provider default.
	if c.LLMTemperature <= 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be above 0 and at most 2, got %v", c.LLMTemperature)
	}
	return nil
}

// Warnings lists settings that degrade the service without stopping it.
func (c *Config) Warnings() []string {
	var out []string
	if c.APIKey == "" {
		out = append(out, "API_KEY not found in environment variables; the advisor will answer with its connection fallback")
	}
	return out
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getFloat(k string, d float32) (float32, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return float32(f), nil
}

func getDuration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return dur, nil
}
