package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tenants   TenantsConfig   `yaml:"tenants"`
	Auth      AuthConfig      `yaml:"auth"`
	Documents DocumentsConfig `yaml:"documents"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// TenantsConfig contains tenant storage settings.
type TenantsConfig struct {
	RootPath string `yaml:"root_path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// APIKey authenticates tenant-scoped API calls. Env-only, never in YAML.
	APIKey string `yaml:"-"`
	// AdminKey authenticates operator endpoints (tenant administration).
	// Env-only, never in YAML.
	AdminKey string `yaml:"-"`
}

// DocumentsConfig contains PDF rendering and object storage settings.
// An empty Bucket leaves document generation in local-disabled mode.
type DocumentsConfig struct {
	RenderURL     string   `yaml:"render_url"`
	RenderTimeout Duration `yaml:"render_timeout"`
	MaxAttempts   int      `yaml:"max_attempts"`

	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	Region    string   `yaml:"region"`
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// AlertsConfig contains alert aggregation settings.
type AlertsConfig struct {
	CacheWindow     Duration `yaml:"cache_window"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("LOCAUTO_CONFIG_PATH", "config/locauto.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Tenants: TenantsConfig{
			RootPath: "~/.locauto/tenants",
		},
		Documents: DocumentsConfig{
			RenderTimeout: Duration(30 * time.Second),
			MaxAttempts:   3,
			URLExpiry:     Duration(15 * time.Minute),
		},
		Alerts: AlertsConfig{
			CacheWindow:     Duration(5 * time.Minute),
			RefreshInterval: Duration(15 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("LOCAUTO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOCAUTO_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("LOCAUTO_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("LOCAUTO_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Tenants
	if v := os.Getenv("LOCAUTO_TENANTS_ROOT"); v != "" {
		cfg.Tenants.RootPath = v
	}

	// Auth
	if v := os.Getenv("LOCAUTO_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LOCAUTO_ADMIN_KEY"); v != "" {
		cfg.Auth.AdminKey = v
	}

	// Documents
	if v := os.Getenv("LOCAUTO_RENDER_URL"); v != "" {
		cfg.Documents.RenderURL = v
	}
	if v := os.Getenv("LOCAUTO_RENDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Documents.RenderTimeout = Duration(d)
		}
	}
	if v := os.Getenv("LOCAUTO_DOCUMENTS_BUCKET"); v != "" {
		cfg.Documents.Bucket = v
	}
	if v := os.Getenv("LOCAUTO_DOCUMENTS_ENDPOINT"); v != "" {
		cfg.Documents.Endpoint = v
	}
	if v := os.Getenv("LOCAUTO_DOCUMENTS_ACCESS_KEY"); v != "" {
		cfg.Documents.AccessKey = v
	}
	if v := os.Getenv("LOCAUTO_DOCUMENTS_SECRET_KEY"); v != "" {
		cfg.Documents.SecretKey = v
	}
	if v := os.Getenv("LOCAUTO_DOCUMENTS_URL_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Documents.URLExpiry = Duration(d)
		}
	}

	// Alerts
	if v := os.Getenv("LOCAUTO_ALERTS_CACHE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.CacheWindow = Duration(d)
		}
	}
	if v := os.Getenv("LOCAUTO_ALERTS_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.RefreshInterval = Duration(d)
		}
	}

	// Log
	if v := os.Getenv("LOCAUTO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOCAUTO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (LOCAUTO_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if os.Getenv("LOCAUTO_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("LOCAUTO_API_KEY is required")
	}
	if c.Auth.AdminKey == "" {
		return errors.New("LOCAUTO_ADMIN_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
