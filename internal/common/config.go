package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Extract    ExtractConfig
	OCR        OCRConfig
	Vocabulary VocabularyConfig
	Score      ScoreConfig
	Batch      BatchConfig
	Log        LogConfig
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	DefaultStrategy string
	Pdftotext       string
	MaxPages        int
}

// OCRConfig holds the remote OCR service configuration
type OCRConfig struct {
	Endpoint string
	APIKey   string
	Engine   int
	Timeout  time.Duration
}

// VocabularyConfig points at an optional vocabulary override file
type VocabularyConfig struct {
	File string
}

// ScoreConfig holds the curated core-field checks
type ScoreConfig struct {
	CoreFields []string
}

// BatchConfig holds batch-run configuration
type BatchConfig struct {
	Workers    int
	JobTimeout time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables, after merging an optional
// .env file (variables already set in the environment win).
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}
	return &Config{
		Extract: ExtractConfig{
			DefaultStrategy: getEnv("EXTRACT_STRATEGY", "local"),
			Pdftotext:       getEnv("PDFTOTEXT_BIN", "pdftotext"),
			MaxPages:        getEnvAsInt("EXTRACT_MAX_PAGES", 0),
		},
		OCR: OCRConfig{
			// no default: documents leave the machine only when an endpoint is configured
			Endpoint: getEnv("OCR_ENDPOINT", ""),
			APIKey:   getEnv("OCR_API_KEY", ""),
			Engine:   getEnvAsInt("OCR_ENGINE", 2),
			Timeout:  getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Vocabulary: VocabularyConfig{
			File: getEnv("VOCABULARY_FILE", ""),
		},
		Score: ScoreConfig{
			CoreFields: getEnvAsList("SCORE_CORE_FIELDS", nil),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			JobTimeout: getEnvAsDuration("BATCH_JOB_TIMEOUT", 3*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return NewAppError("CONFIG_ERROR", "load "+path, err)
	}
	return nil
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("EXTRACT_STRATEGY", c.Extract.DefaultStrategy, OneOf("local", "external")).
		Field("PDFTOTEXT_BIN", c.Extract.Pdftotext, Required).
		Field("OCR_ENDPOINT", c.OCR.Endpoint, HTTPURL).
		Field("OCR_TIMEOUT", c.OCR.Timeout, PositiveDuration).
		Field("BATCH_WORKERS", c.Batch.Workers, PositiveInt).
		Field("BATCH_JOB_TIMEOUT", c.Batch.JobTimeout, PositiveDuration).
		Field("LOG_LEVEL", c.Log.Level, OneOf("debug", "info", "warn", "warning", "error")).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
