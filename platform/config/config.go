// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// CacheConfig provides settings for the catalog cache.
type CacheConfig interface {
	GetRedisURL() string
	GetCatalogCacheTTL() time.Duration
}

// StorageConfig provides settings for MinIO S3-compatible attachment storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetAttachmentsBucket() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for outbound offer mail.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// ShareConfig provides settings for public offer share links.
type ShareConfig interface {
	GetShareTokenSecret() string
	GetShareTokenTTL() time.Duration
	GetAppBaseURL() string
}

// AuthConfig provides settings for validating staff access tokens.
type AuthConfig interface {
	GetJWTAccessSecret() string
}

// =============================================================================
// Concrete Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	RedisURL         string
	AsynqQueue       string
	AsynqConcurrency int
	CatalogCacheTTL  time.Duration

	CORSAllowAll bool
	CORSOrigins  []string

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOMaxFileSize  int64
	AttachmentsBucket string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	ShareTokenSecret string
	ShareTokenTTL    time.Duration
	AppBaseURL       string

	JWTAccessSecret string
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	// Missing .env is fine in production; env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:         os.Getenv("REDIS_URL"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: int(getInt64("ASYNQ_CONCURRENCY", 10)),
		CatalogCacheTTL:  getDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		CORSAllowAll: getBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  splitList(os.Getenv("CORS_ORIGINS")),

		MinIOEndpoint:     os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:       getBool("MINIO_USE_SSL", false),
		MinIOMaxFileSize:  getInt64("MINIO_MAX_FILE_SIZE", 25<<20),
		AttachmentsBucket: getEnv("MINIO_BUCKET_OFFER_ATTACHMENTS", "offer-attachments"),

		EmailEnabled:     getBool("EMAIL_ENABLED", false),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         int(getInt64("SMTP_PORT", 587)),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Offer Builder"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", "offers@localhost"),

		ShareTokenSecret: os.Getenv("SHARE_TOKEN_SECRET"),
		ShareTokenTTL:    getDuration("SHARE_TOKEN_TTL", 30*24*time.Hour),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:8080"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ShareTokenSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("SHARE_TOKEN_SECRET is required outside development")
	}
	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string              { return c.DatabaseURL }
func (c *Config) GetHTTPAddr() string                 { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool               { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string            { return c.CORSOrigins }
func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetCatalogCacheTTL() time.Duration   { return c.CatalogCacheTTL }
func (c *Config) GetMinIOEndpoint() string            { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string           { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string           { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64          { return c.MinIOMaxFileSize }
func (c *Config) GetAttachmentsBucket() string        { return c.AttachmentsBucket }
func (c *Config) IsMinIOEnabled() bool                { return c.MinIOEndpoint != "" }
func (c *Config) GetEmailEnabled() bool               { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                 { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                    { return c.SMTPPort }
func (c *Config) GetSMTPUser() string                 { return c.SMTPUser }
func (c *Config) GetSMTPPassword() string             { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string            { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string         { return c.EmailFromAddress }
func (c *Config) GetShareTokenSecret() string         { return c.ShareTokenSecret }
func (c *Config) GetShareTokenTTL() time.Duration     { return c.ShareTokenTTL }
func (c *Config) GetAppBaseURL() string               { return c.AppBaseURL }
func (c *Config) GetJWTAccessSecret() string          { return c.JWTAccessSecret }

// Helpers.

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
