// Package config provides application configuration loaded from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// devJWTSecret is only meant for local runs; Load warns when it is in use.
const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// DatabaseConfig holds the connection string and migration switch.
type DatabaseConfig struct {
	URL        string
	Migrations bool
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string
	JWTTTL     time.Duration // zero disables expiry
	JWTIssuer  string
	BcryptCost int
}

// StorageConfig selects and configures the blob backend.
type StorageConfig struct {
	Backend        string // "local" or "gcs"
	UploadDir      string
	GCSBucket      string
	GCSPrefix      string
	GCSCredentials string
	MaxUploadBytes int64
}

// OCRConfig selects and configures the extraction provider.
type OCRConfig struct {
	Provider      string // "tesseract", "ocrspace" or "none"
	Timeout       time.Duration
	Languages     []string
	PageWorkers   int
	PDFDPI        int
	SpaceURL      string
	SpaceAPIKey   string
	SpaceLanguage string
}

// LogConfig holds slog handler settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 15)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 120)) * time.Second,
			IdleTimeout:  time.Duration(getEnvInt("SERVER_IDLE_TIMEOUT", 60)) * time.Second,
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", "sqlite://factures.db"),
			Migrations: getEnvBool("MIGRATIONS", true),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET_KEY", devJWTSecret),
			JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
			JWTIssuer:  getEnv("JWT_ISSUER", "factures-api"),
			BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("BLOB_BACKEND", "local")),
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			GCSBucket:      getEnv("GCS_BUCKET", ""),
			GCSPrefix:      getEnv("GCS_PREFIX", "factures/"),
			GCSCredentials: getEnv("GCS_CREDENTIALS_FILE", ""),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		},
		OCR: OCRConfig{
			Provider:      strings.ToLower(getEnv("OCR_PROVIDER", "tesseract")),
			Timeout:       getEnvDuration("OCR_TIMEOUT", 60*time.Second),
			Languages:     splitList(getEnv("OCR_LANGUAGES", "eng")),
			PageWorkers:   getEnvInt("OCR_PAGE_WORKERS", 4),
			PDFDPI:        getEnvInt("OCR_PDF_DPI", 300),
			SpaceURL:      getEnv("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			SpaceAPIKey:   getEnv("OCR_SPACE_API_KEY", ""),
			SpaceLanguage: getEnv("OCR_SPACE_LANGUAGE", "fre"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	if cfg.Auth.JWTSecret == devJWTSecret {
		slog.Warn("JWT_SECRET_KEY is not set, using the development secret. Do not use in production.")
	}
	if cfg.Auth.JWTTTL == 0 {
		slog.Warn("JWT_TTL=0: issued tokens never expire")
	}
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.OCR.PageWorkers < 1 {
		cfg.OCR.PageWorkers = 1
	}
	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses a Go duration ("90s", "24h"). A bare integer is read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if i, err := strconv.Atoi(value); err == nil {
		return time.Duration(i) * time.Second
	}
	slog.Warn("invalid duration, using default", "key", key, "value", value)
	return defaultValue
}

// splitList splits "fra+eng" or "fra,eng" into its parts.
func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
