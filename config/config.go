package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Logging
	LogLevel string // "debug", "info", "warn", "error", "fatal"

	// Data directory
	DataDir string

	// Database
	DatabasePath string

	// Where an external capture agent drops screenshot frames
	FrameDropPath string

	// OCR model (vision, OpenAI-compatible)
	OCRBaseURL string
	OCRAPIKey  string
	OCRModel   string
	OCRAppID   string

	// Analysis model (text, OpenAI-compatible)
	AnalysisBaseURL string
	AnalysisAPIKey  string
	AnalysisModel   string
	AnalysisAppID   string
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("SNAPTODO_DATA_DIR", "./data")
	appDir := filepath.Join(dataDir, "app", "snaptodo")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 8642),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Data
		DataDir:       dataDir,
		DatabasePath:  filepath.Join(appDir, "database.sqlite"),
		FrameDropPath: getEnv("SNAPTODO_FRAME_PATH", filepath.Join(dataDir, "frames", "capture.jpg")),

		// OCR model
		OCRBaseURL: getEnv("OCR_BASE_URL", "https://maas-api.cn-huabei-1.xf-yun.com/v1"),
		OCRAPIKey:  getEnv("OCR_API_KEY", ""),
		OCRModel:   getEnv("OCR_MODEL", "xophunyuanocr"),
		OCRAppID:   getEnv("OCR_APP_ID", ""),

		// Analysis model
		AnalysisBaseURL: getEnv("ANALYSIS_BASE_URL", "https://maas-api.cn-huabei-1.xf-yun.com/v1"),
		AnalysisAPIKey:  getEnv("ANALYSIS_API_KEY", ""),
		AnalysisModel:   getEnv("ANALYSIS_MODEL", "xop3qwen1b7"),
		AnalysisAppID:   getEnv("ANALYSIS_APP_ID", ""),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
