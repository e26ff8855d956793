package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	SMTP     SMTPConfig
	Portal   PortalConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
	Migrate  bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SMTPConfig holds the outgoing mail relay used for status notifications.
// An empty Host disables email delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail relay is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// PortalConfig holds settings for the administrator portal client.
type PortalConfig struct {
	APIURL   string
	Timeout  time.Duration
	PageSize int
}

// Load reads configuration from an optional .env file and the environment.
// Values already present in the environment win over the .env file.
func Load() (*Config, error) {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "fireportal")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3001")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "Lubao Fire Station <no-reply@lubaofire.local>")
	v.SetDefault("PORTAL_API_URL", "http://localhost:3000")
	v.SetDefault("PORTAL_TIMEOUT", "15s")
	v.SetDefault("PORTAL_PAGE_SIZE", 10)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Portal: PortalConfig{
			APIURL:   strings.TrimRight(v.GetString("PORTAL_API_URL"), "/"),
			Timeout:  v.GetDuration("PORTAL_TIMEOUT"),
			PageSize: v.GetInt("PORTAL_PAGE_SIZE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadPortal reads only the settings the portal client needs, so the
// command-line tool runs without database credentials.
func LoadPortal() (*PortalConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORTAL_API_URL", "http://localhost:3000")
	v.SetDefault("PORTAL_TIMEOUT", "15s")
	v.SetDefault("PORTAL_PAGE_SIZE", 10)
	v.AutomaticEnv()

	cfg := &PortalConfig{
		APIURL:   strings.TrimRight(v.GetString("PORTAL_API_URL"), "/"),
		Timeout:  v.GetDuration("PORTAL_TIMEOUT"),
		PageSize: v.GetInt("PORTAL_PAGE_SIZE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.SMTP.Enabled() {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
		}
	}

	return c.Portal.Validate()
}

// Validate checks the portal client settings.
func (p *PortalConfig) Validate() error {
	if p.APIURL == "" {
		return fmt.Errorf("PORTAL_API_URL is required")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("PORTAL_TIMEOUT must be positive")
	}
	if p.PageSize < 1 {
		return fmt.Errorf("PORTAL_PAGE_SIZE must be at least 1")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
