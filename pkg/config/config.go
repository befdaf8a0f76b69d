package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is read by Load when present.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-tables.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// SQL engine the service manages tables in
	Engine EngineConfig `yaml:"engine"`

	Statements StatementsConfig `yaml:"statements"`
}

// EngineConfig selects and configures the SQL engine adapter.
type EngineConfig struct {
	// Type is the registered adapter name: postgres, mysql, sqlserver or sqlite.
	Type     string `yaml:"type" env:"ENGINE_TYPE" env-default:"sqlite"`
	Host     string `yaml:"host" env:"ENGINE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"ENGINE_PORT" env-default:"0"` // 0 selects the adapter's default
	User     string `yaml:"user" env:"ENGINE_USER" env-default:""`
	Password string `yaml:"-" env:"ENGINE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"ENGINE_DATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"ENGINE_SSL_MODE" env-default:""`
	// Path is the database file for sqlite; empty means in-memory.
	Path           string `yaml:"path" env:"ENGINE_PATH" env-default:""`
	MaxConnections int    `yaml:"max_connections" env:"ENGINE_MAX_CONNECTIONS" env-default:"10"`
	// ConnectRetries bounds startup ping attempts after the first.
	ConnectRetries int `yaml:"connect_retries" env:"ENGINE_CONNECT_RETRIES" env-default:"5"`
}

// StatementsConfig holds statement registry limits.
type StatementsConfig struct {
	// MaxLength is the longest statement text accepted, in characters.
	MaxLength int `yaml:"max_length" env:"STATEMENT_MAX_LENGTH" env-default:"120"`
}

var engineTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// AdapterConfig renders the engine settings as the generic map the adapter
// factories accept. Unset optional values are omitted so adapter defaults apply.
func (e *EngineConfig) AdapterConfig() map[string]any {
	cfg := map[string]any{
		"host":            e.Host,
		"user":            e.User,
		"password":        e.Password,
		"database":        e.Database,
		"max_connections": e.MaxConnections,
	}
	if e.Port > 0 {
		cfg["port"] = e.Port
	}
	if e.SSLMode != "" {
		cfg["ssl_mode"] = e.SSLMode
	}
	if e.Path != "" {
		cfg["path"] = e.Path
	}
	return cfg
}

// Load reads configuration from config.yaml, if present, with environment
// variable overrides; without the file it reads the environment only.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom is Load with an explicit YAML path.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		// Load config from YAML file with environment variable overrides
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate TLS configuration
	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !engineTypePattern.MatchString(c.Engine.Type) {
		return fmt.Errorf("engine.type %q is not a valid adapter name", c.Engine.Type)
	}
	if c.Statements.MaxLength <= 0 {
		return fmt.Errorf("statements.max_length must be positive, got %d", c.Statements.MaxLength)
	}
	if c.Engine.ConnectRetries < 0 {
		return fmt.Errorf("engine.connect_retries must not be negative, got %d", c.Engine.ConnectRetries)
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Readability is checked by tls.LoadX509KeyPair at startup.
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
