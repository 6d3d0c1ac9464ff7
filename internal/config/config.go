// Package config loads the skillloop configuration from config.yml, .env and
// environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/skillloop/internal/logger"
)

// Config is the root configuration for the skillloop server.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	OAuth     OAuthConfig     `yaml:"oauth" mapstructure:"oauth"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string   `yaml:"host" mapstructure:"host"`
	Port         int      `yaml:"port" mapstructure:"port"`
	ReadTimeout  int      `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int      `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int      `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host" mapstructure:"host"`
	Port            int    `yaml:"port" mapstructure:"port"`
	User            string `yaml:"user" mapstructure:"user"`
	Password        string `yaml:"password" mapstructure:"password"`
	Name            string `yaml:"name" mapstructure:"name"`
	SSLMode         string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	MaxRetries      int    `yaml:"max_retries" mapstructure:"max_retries"`
	AutoMigrate     bool   `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// AuthConfig holds token issuance and request authorization configuration.
type AuthConfig struct {
	// AccessSecret signs access tokens. Minimum 64 bytes for HS512.
	AccessSecret string `yaml:"access_secret" mapstructure:"access_secret"`
	// RefreshSecret signs refresh tokens. Must differ from AccessSecret.
	RefreshSecret string `yaml:"refresh_secret" mapstructure:"refresh_secret"`
	// Algorithm is the HMAC signing algorithm (default: HS512).
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`
	// AccessTTL is the access token lifetime (default: 1h).
	AccessTTL time.Duration `yaml:"access_ttl" mapstructure:"access_ttl"`
	// RefreshTTL is the refresh token lifetime (default: 168h).
	RefreshTTL time.Duration `yaml:"refresh_ttl" mapstructure:"refresh_ttl"`
	// AllowAnonymous forwards tokenless requests on protected paths instead
	// of rejecting them. Handlers still require identity where they need it.
	AllowAnonymous bool `yaml:"allow_anonymous" mapstructure:"allow_anonymous"`
	// RotateOnRefresh issues a new refresh token on each refresh and revokes
	// the presented one.
	RotateOnRefresh bool `yaml:"rotate_on_refresh" mapstructure:"rotate_on_refresh"`
}

// OAuthConfig holds OAuth2 provider configuration.
type OAuthConfig struct {
	Google      GoogleOAuthConfig `yaml:"google" mapstructure:"google"`
	RedirectURL string            `yaml:"redirect_url" mapstructure:"redirect_url"`
}

// GoogleOAuthConfig holds Google OIDC client configuration.
type GoogleOAuthConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	CallbackURL  string `yaml:"callback_url" mapstructure:"callback_url"`
}

// StorageConfig holds media storage configuration.
type StorageConfig struct {
	// Provider selects the backend: "s3" or "local".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// MaxUploadMB caps multipart uploads, in megabytes.
	MaxUploadMB int64 `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`

	S3    S3Config    `yaml:"s3" mapstructure:"s3"`
	Local LocalConfig `yaml:"local" mapstructure:"local"`
}

// S3Config holds S3-compatible object storage configuration. A custom
// Endpoint covers Backblaze B2 and other S3-compatible services.
type S3Config struct {
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
}

// LocalConfig holds local filesystem storage configuration.
type LocalConfig struct {
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plain HTTP export, for local collectors.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	c.Logging.ApplyDefaults()
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == "" {
		c.Database.ConnMaxLifetime = "30m"
	}
	if c.Database.MaxRetries == 0 {
		c.Database.MaxRetries = 5
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS512"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = time.Hour
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "local"
	}
	if c.Storage.MaxUploadMB == 0 {
		c.Storage.MaxUploadMB = 50
	}
	if c.Storage.Local.BasePath == "" {
		c.Storage.Local.BasePath = "/tmp/skillloop-media"
	}
	if c.OAuth.RedirectURL == "" {
		c.OAuth.RedirectURL = "http://localhost:5173"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
}

// Validate checks the configuration. Key-strength checks live in the token
// codec, which fails construction; this catches the rest early.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("auth.access_secret is required")
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("auth.refresh_secret is required")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("auth.access_secret and auth.refresh_secret must differ")
	}
	switch c.Storage.Provider {
	case "s3", "local":
	default:
		return fmt.Errorf("storage.provider must be s3 or local (got: %s)", c.Storage.Provider)
	}
	return nil
}
