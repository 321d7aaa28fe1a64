package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	Match  MatchConfig
	Cache  CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	MaxPhotos       int
	ThumbnailSize   int
	ShutdownTimeout time.Duration
	OCRTimeout      time.Duration // per-photo budget for the OCR collaborator
}

// OCRConfig holds settings for the external OCR/pdf collaborators.
type OCRConfig struct {
	Pdftotext     string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	HeicConverter string
	PSM           int
	OEM           int
	EnhanceImages bool
	ArtifactDir   string
	RemoteURL     string // non-empty switches OCR to the remote HTTP engine
}

// MatchConfig holds candidate filtering and classification settings.
type MatchConfig struct {
	MinLength           int
	ConfidenceThreshold float64
	HighThreshold       float64
}

// CacheConfig holds the optional OCR detection cache settings.
type CacheConfig struct {
	Path string // sqlite file; empty disables caching
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			MaxPhotos:       getEnvAsInt("MAX_PHOTOS", 60),
			ThumbnailSize:   getEnvAsInt("THUMBNAIL_SIZE", 150),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			OCRTimeout:      getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			HeicConverter: getEnv("HEIC_CONVERTER", "magick"),
			PSM:           getEnvAsInt("TESSERACT_PSM", 0),
			OEM:           getEnvAsInt("TESSERACT_OEM", 0),
			EnhanceImages: getEnvAsBool("OCR_ENHANCE_IMAGES", false),
			ArtifactDir:   getEnv("ARTIFACT_DIR", "./tmp"),
			RemoteURL:     getEnv("OCR_REMOTE_URL", ""),
		},
		Match: MatchConfig{
			MinLength:           getEnvAsInt("MATCH_MIN_LENGTH", 2),
			ConfidenceThreshold: getEnvAsFloat64("MATCH_CONF_THRESHOLD", 0.3),
			HighThreshold:       getEnvAsFloat64("MATCH_HIGH_THRESHOLD", 85),
		},
		Cache: CacheConfig{
			Path: getEnv("OCR_CACHE_PATH", ""),
		},
	}
}

// Validate rejects settings that would silently corrupt matching.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Match.MinLength < 1 {
		return NewAppError("CONFIG_ERROR", "MATCH_MIN_LENGTH must be >= 1", ErrInvalidInput)
	}
	if c.Match.ConfidenceThreshold < 0 || c.Match.ConfidenceThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "MATCH_CONF_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Match.HighThreshold <= 0 || c.Match.HighThreshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_HIGH_THRESHOLD must be in (0,100]", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing.
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
