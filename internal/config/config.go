package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Photo     PhotoConfig
	QR        QRConfig
	Seed      SeedConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	CORS      CORSConfig
	Security  SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	// MaxBodyBytes caps JSON request bodies outside the photo upload route
	MaxBodyBytes int64
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	Driver             string // "postgres" (lib/pq) or "pgx"
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// StorageConfig selects where QR images and photos are written
type StorageConfig struct {
	Backend        string // "local" or "minio"
	StaticDir      string
	PublicBasePath string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PresignExpiry  time.Duration
}

// PhotoConfig controls photo normalisation
type PhotoConfig struct {
	MaxBytes    int
	MaxWidth    int
	JPEGQuality int
}

// MaxRequestBytes is the body cap for photo uploads. The image travels
// base64 encoded inside a JSON envelope.
func (p PhotoConfig) MaxRequestBytes() int64 {
	return int64(p.MaxBytes)*4/3 + 64*1024
}

// QRConfig controls QR image rendering
type QRConfig struct {
	Size          int
	RecoveryLevel string // low, medium, high, highest
}

// SeedConfig holds the bootstrap accounts created on startup
type SeedConfig struct {
	AdminPassword string
	GuardUsername string
	GuardPassword string
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	LoginMaxAttempts   int
	LoginMaxIPAttempts int
	LoginWindow        time.Duration
}

// AuditConfig holds audit log configuration
type AuditConfig struct {
	Enabled       bool
	RetentionDays int
	CleanupSpec   string // cron spec with seconds field
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 64*1024)),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 43200)) * time.Second,
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			StaticDir:      getEnv("STATIC_DIR", "static"),
			PublicBasePath: getEnv("STATIC_PUBLIC_PATH", "/static"),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "gatepass"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			PresignExpiry:  time.Duration(getEnvAsInt("MINIO_PRESIGN_EXPIRY", 3600)) * time.Second,
		},
		Photo: PhotoConfig{
			MaxBytes:    getEnvAsInt("PHOTO_MAX_BYTES", 5*1024*1024),
			MaxWidth:    getEnvAsInt("PHOTO_MAX_WIDTH", 1280),
			JPEGQuality: getEnvAsInt("PHOTO_JPEG_QUALITY", 85),
		},
		QR: QRConfig{
			Size:          getEnvAsInt("QR_SIZE", 290),
			RecoveryLevel: getEnv("QR_RECOVERY_LEVEL", "low"),
		},
		Seed: SeedConfig{
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			GuardUsername: getEnv("SEED_GUARD_USERNAME", "guard1"),
			GuardPassword: getEnv("SEED_GUARD_PASSWORD", "gate1"),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginMaxIPAttempts: getEnvAsInt("LOGIN_MAX_IP_ATTEMPTS", 20),
			LoginWindow:        time.Duration(getEnvAsInt("LOGIN_WINDOW_MINUTES", 15)) * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:       getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
			RetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 180),
			CleanupSpec:   getEnv("AUDIT_CLEANUP_SCHEDULE", "0 30 3 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.StaticDir == "" {
			return fmt.Errorf("STATIC_DIR is required for local storage")
		}
	case "minio":
		if c.Storage.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for minio storage")
		}
		if c.Storage.MinioAccessKey == "" || c.Storage.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for minio storage")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %s (must be 'local' or 'minio')", c.Storage.Backend)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	if c.Photo.MaxBytes <= 0 {
		return fmt.Errorf("PHOTO_MAX_BYTES must be positive")
	}

	if c.Photo.MaxWidth <= 0 {
		return fmt.Errorf("PHOTO_MAX_WIDTH must be positive")
	}

	if c.Photo.JPEGQuality < 1 || c.Photo.JPEGQuality > 100 {
		return fmt.Errorf("PHOTO_JPEG_QUALITY must be between 1 and 100")
	}

	if c.Server.Environment == "production" && c.Seed.AdminPassword == "admin123" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed in production")
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
