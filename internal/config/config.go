// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for sitemap entries and links.
	BaseURL string

	// CDNBaseURL is the asset CDN origin used for image URLs.
	CDNBaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Identity holds identity-provider settings.
	Identity IdentityConfig

	// Storage holds S3-compatible object storage settings for avatars.
	Storage StorageConfig

	// Upload holds file upload settings.
	Upload UploadConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "jadihebat").
	User string

	// Password is the MariaDB password (default: "jadihebat").
	Password string

	// Name is the database name (default: "jadihebat").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// IdentityConfig holds settings for the upstream identity provider that
// owns user accounts and issues access/refresh tokens.
type IdentityConfig struct {
	// BaseURL is the provider API root (e.g., "https://id.jadihebat.com").
	BaseURL string

	// AdminToken is a static privileged token used only for account
	// creation during registration. Never sent to browsers.
	AdminToken string

	// DefaultRoleID is the provider role assigned to self-registered users.
	DefaultRoleID string

	// Timeout bounds every provider HTTP call. A timeout is treated the
	// same as a network failure by the session middleware.
	Timeout time.Duration
}

// StorageConfig holds S3-compatible object storage settings (Cloudflare R2).
type StorageConfig struct {
	// Endpoint is the S3 API endpoint URL.
	Endpoint string

	// Bucket is the bucket name for avatar objects.
	Bucket string

	// AccessKeyID and SecretAccessKey are the S3 credentials.
	AccessKeyID     string
	SecretAccessKey string

	// PublicURL is the public origin serving uploaded objects.
	PublicURL string
}

// Configured reports whether all required storage settings are present.
// Avatar uploads are rejected with a clear error when storage is not
// configured instead of failing deep inside the SDK.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.Bucket != "" &&
		s.AccessKeyID != "" && s.SecretAccessKey != "" && s.PublicURL != ""
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxAvatarSize is the maximum avatar file size in bytes.
	MaxAvatarSize int64
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnvInt("PORT", 8080),
		BaseURL:    getEnv("BASE_URL", "https://jadihebat.com"),
		CDNBaseURL: getEnv("CDN_BASE_URL", "https://assets.jadihebat.com"),
		LogLevel:   getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "jadihebat"),
			Password:        getEnv("DB_PASSWORD", "jadihebat"),
			Name:            getEnv("DB_NAME", "jadihebat"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Identity: IdentityConfig{
			BaseURL:       getEnv("API_BASE_URL", "http://localhost:8055"),
			AdminToken:    getEnv("API_ADMIN_TOKEN", ""),
			DefaultRoleID: getEnv("API_DEFAULT_ROLE_ID", ""),
			Timeout:       getEnvDuration("API_TIMEOUT", 10*time.Second),
		},

		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_R2_ENDPOINT", ""),
			Bucket:          getEnv("STORAGE_R2_BUCKET_NAME", ""),
			AccessKeyID:     getEnv("STORAGE_R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_R2_SECRET_ACCESS_KEY", ""),
			PublicURL:       getEnv("STORAGE_R2_PUBLIC_URL", ""),
		},

		Upload: UploadConfig{
			MaxAvatarSize: getEnvInt64("MAX_AVATAR_SIZE", 2*1024*1024), // 2MB
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	if cfg.IsProduction() {
		if cfg.Identity.BaseURL == "" {
			return nil, fmt.Errorf("API_BASE_URL is required in production")
		}
		if cfg.Identity.AdminToken == "" {
			return nil, fmt.Errorf("API_ADMIN_TOKEN is required in production")
		}
		if cfg.Identity.DefaultRoleID == "" {
			return nil, fmt.Errorf("API_DEFAULT_ROLE_ID is required in production")
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production mode. Controls the
// Secure flag on auth cookies and the production-only security headers.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "10s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
