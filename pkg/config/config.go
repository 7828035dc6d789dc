package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for relgraph-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API key, admin password, database password) must only come from
// environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// CORSOrigins lists allowed browser origins, comma separated in env.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Auth covers both guard strategies: the static API key for mutating
	// endpoints and admin credentials for session-token issuance.
	Auth AuthConfig `yaml:"auth"`

	// Render configures the graph image pipeline.
	Render RenderConfig `yaml:"render"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"relgraph"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"relgraph_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AuthConfig holds access control configuration.
type AuthConfig struct {
	// APIKey is the shared secret for mutating endpoints. May be empty;
	// the key guard reports server misconfiguration on use in that case.
	APIKey string `yaml:"-" env:"API_KEY"` // Secret - not in YAML

	// Admin credentials for session-token login.
	AdminUsername string `yaml:"admin_username" env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string `yaml:"-" env:"ADMIN_PASSWORD"` // Secret - not in YAML

	// SessionTTLHours is how long a minted session token stays valid.
	SessionTTLHours int `yaml:"session_ttl_hours" env:"SESSION_TTL_HOURS" env-default:"24"`

	// SweepIntervalMinutes is how often expired sessions are evicted.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" env:"SESSION_SWEEP_INTERVAL_MINUTES" env-default:"60"`
}

// SessionTTL returns the session validity window as a duration.
func (a *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// SweepInterval returns the background eviction period as a duration.
func (a *AuthConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepIntervalMinutes) * time.Minute
}

// RenderConfig holds graph image pipeline configuration.
type RenderConfig struct {
	// Canvas size in CSS pixels. Output resolution is multiplied by the
	// device scale factor.
	ViewportWidth  int `yaml:"viewport_width" env:"RENDER_VIEWPORT_WIDTH" env-default:"1200"`
	ViewportHeight int `yaml:"viewport_height" env:"RENDER_VIEWPORT_HEIGHT" env-default:"800"`

	// DeviceScaleFactor multiplies the captured resolution.
	DeviceScaleFactor float64 `yaml:"device_scale_factor" env:"RENDER_DEVICE_SCALE_FACTOR" env-default:"2"`

	// LayoutWaitMs bounds the wait for the force layout to settle before
	// the screenshot is taken anyway.
	LayoutWaitMs int `yaml:"layout_wait_ms" env:"RENDER_LAYOUT_WAIT_MS" env-default:"8000"`

	// Disabled turns the image routes into 503s. Useful on hosts without
	// a Chrome binary.
	Disabled bool `yaml:"disabled" env:"RENDER_DISABLED" env-default:"false"`
}

// LayoutWait returns the layout settle bound as a duration.
func (r *RenderConfig) LayoutWait() time.Duration {
	return time.Duration(r.LayoutWaitMs) * time.Millisecond
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SessionTTLHours <= 0 {
		return fmt.Errorf("session_ttl_hours must be positive, got %d", c.Auth.SessionTTLHours)
	}
	if c.Auth.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("sweep_interval_minutes must be positive, got %d", c.Auth.SweepIntervalMinutes)
	}
	if c.Render.ViewportWidth < 100 || c.Render.ViewportWidth > 4000 {
		return fmt.Errorf("viewport_width out of range: %d", c.Render.ViewportWidth)
	}
	if c.Render.ViewportHeight < 100 || c.Render.ViewportHeight > 4000 {
		return fmt.Errorf("viewport_height out of range: %d", c.Render.ViewportHeight)
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", c.Database.MaxConnections)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
