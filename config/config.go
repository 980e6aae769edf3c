package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Built-in defaults; they must match the struct tags below.
const (
	defaultAdminCode     = "HOSTEL_PG_ADMIN_2025"
	defaultJWTSecret     = "change-me-to-a-long-random-secret"
	defaultEncryptionKey = "HostelPG2025SecureKey12345678901"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"hostel.db"`

	JWTSecret     string `envconfig:"JWT_SECRET" default:"change-me-to-a-long-random-secret"`
	JWTTTLHours   int    `envconfig:"JWT_TTL_HOURS" default:"24"`
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" default:"HostelPG2025SecureKey12345678901"`
	AdminCode     string `envconfig:"ADMIN_CODE" default:"HOSTEL_PG_ADMIN_2025"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"ap-south-1"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"photo-ids"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`

	PhotoMaxBytes     int `envconfig:"PHOTO_MAX_BYTES" default:"256000"`
	PhotoMaxDimension int `envconfig:"PHOTO_MAX_DIMENSION" default:"1024"`
	RoomMaxCapacity   int `envconfig:"ROOM_MAX_CAPACITY" default:"4"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"50"`

	DuesCron    string   `envconfig:"DUES_CRON" default:"0 9 * * *"`
	Timezone    string   `envconfig:"TIMEZONE" default:"Asia/Kolkata"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves TIMEZONE. "Today" for billing and reports is computed here.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// ValidateConfig returns an error for settings the server cannot run with and
// logs warnings for weak ones.
func ValidateConfig(cfg *Config, log zerolog.Logger) error {
	if len(cfg.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 characters, got %d", len(cfg.EncryptionKey))
	}
	switch strings.ToLower(cfg.DBDriver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.RoomMaxCapacity < 1 {
		return fmt.Errorf("ROOM_MAX_CAPACITY must be at least 1, got %d", cfg.RoomMaxCapacity)
	}
	if cfg.PhotoMaxBytes < 1024 || cfg.PhotoMaxDimension < 64 {
		return fmt.Errorf("PHOTO_MAX_BYTES/PHOTO_MAX_DIMENSION too small")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.IsProduction() {
		if !cfg.S3Configured() {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.EncryptionKey == defaultEncryptionKey {
			return fmt.Errorf("ENCRYPTION_KEY must be set in production")
		}
	} else if cfg.JWTSecret == defaultJWTSecret || cfg.EncryptionKey == defaultEncryptionKey {
		log.Warn().Msg("using the built-in JWT_SECRET/ENCRYPTION_KEY; not for production")
	}

	if len(cfg.JWTSecret) < 32 {
		log.Warn().Msg("JWT_SECRET should be at least 32 characters")
	}
	if cfg.IsProduction() && cfg.AdminCode == defaultAdminCode {
		log.Warn().Msg("change ADMIN_CODE in production")
	}
	return nil
}
