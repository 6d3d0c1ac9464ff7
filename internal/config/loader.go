package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads configuration from a config.yml (searched in standard locations
// or given explicitly), a .env file if present, and environment variables.
// Environment variables use SKILLLOOP_ prefixed keys with underscores for
// nesting, e.g. SKILLLOOP_AUTH_ACCESS_SECRET.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	if envFile := findEnvFile(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", envFile, err)
		}
	}

	v.SetEnvPrefix("SKILLLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile() string {
	searchPaths := []string{
		"./cmd/server/config.yml",
		"./config/config.yml",
		"./config.yml",
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findEnvFile searches for a .env file in standard locations.
func findEnvFile() string {
	for _, path := range []string{".env", "./cmd/server/.env"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// bindEnvKeys explicitly binds nested keys so viper's Unmarshal sees env-only
// values that never appeared in the YAML file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"logging.level", "logging.format",
		"database.host", "database.port", "database.user", "database.password",
		"database.name", "database.ssl_mode", "database.auto_migrate",
		"redis.enabled", "redis.addr", "redis.password", "redis.db",
		"auth.access_secret", "auth.refresh_secret", "auth.algorithm",
		"auth.access_ttl", "auth.refresh_ttl",
		"auth.allow_anonymous", "auth.rotate_on_refresh",
		"oauth.redirect_url",
		"oauth.google.client_id", "oauth.google.client_secret", "oauth.google.callback_url",
		"storage.provider", "storage.max_upload_mb",
		"storage.s3.bucket", "storage.s3.region", "storage.s3.endpoint",
		"storage.s3.access_key", "storage.s3.secret_key", "storage.s3.public_url",
		"storage.local.base_path", "storage.local.base_url",
		"telemetry.enabled", "telemetry.endpoint",
		"telemetry.insecure", "telemetry.sample_rate",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
