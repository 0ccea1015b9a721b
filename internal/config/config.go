package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the MinIO provider.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Config holds settings for the AWS S3 provider.
// Endpoint is optional and only needed for S3-compatible services.
type S3Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	UsePathStyle bool
}

// StorageConfig selects the active storage provider and carries settings for every provider.
type StorageConfig struct {
	Provider string
	MinIO    MinIOConfig
	S3       S3Config
}

// ShortenerConfig configures the external URL shortener used for share links.
type ShortenerConfig struct {
	Enabled    bool
	Endpoint   string
	TimeoutSec int
}

// SweepConfig controls the background maintenance loop.
type SweepConfig struct {
	Enabled         bool
	IntervalSec     int
	RetryBackoffSec int
}

// ShareConfig holds defaults for share links.
type ShareConfig struct {
	DefaultExpiryDays int
	CacheSize         int
	CacheTTLSec       int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost           string
	Port              string
	Timezone          string
	LogLevel          string
	DefaultOwnerID    string
	DownloadURLExpiry int
	Database          DatabaseConfig
	Storage           StorageConfig
	Shortener         ShortenerConfig
	Sweep             SweepConfig
	Share             ShareConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		AppHost:           getEnv("APP_HOST", "localhost:8080"),
		Port:              getEnv("PORT", "8080"),
		Timezone:          getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultOwnerID:    getEnv("DEFAULT_OWNER_ID", "test_user"),
		DownloadURLExpiry: getEnvInt("DOWNLOAD_URL_EXPIRY_SEC", 3600),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Provider: strings.ToLower(getEnv("STORAGE_PROVIDER", "minio")),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				Region:    getEnv("MINIO_REGION", "us-east-1"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Region:       getEnv("S3_REGION", "us-east-1"),
				Bucket:       getEnv("S3_BUCKET", ""),
				AccessKey:    getEnv("S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("S3_SECRET_KEY", ""),
				Endpoint:     getEnv("S3_ENDPOINT", ""),
				UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
			},
		},
		Shortener: ShortenerConfig{
			Enabled:    getEnvBool("SHORTENER_ENABLED", true),
			Endpoint:   getEnv("SHORTENER_ENDPOINT", "https://is.gd/create.php"),
			TimeoutSec: getEnvInt("SHORTENER_TIMEOUT_SEC", 5),
		},
		Sweep: SweepConfig{
			Enabled:         getEnvBool("SWEEP_ENABLED", true),
			IntervalSec:     getEnvInt("SWEEP_INTERVAL_SEC", 3600),
			RetryBackoffSec: getEnvInt("SWEEP_RETRY_BACKOFF_SEC", 300),
		},
		Share: ShareConfig{
			DefaultExpiryDays: getEnvInt("SHARE_DEFAULT_EXPIRY_DAYS", 7),
			CacheSize:         getEnvInt("SHARE_CACHE_SIZE", 1024),
			CacheTTLSec:       getEnvInt("SHARE_CACHE_TTL_SEC", 60),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Seconds converts a whole number of seconds from the environment into a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
