package postgres

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string // "disable", "require", "verify-ca", "verify-full"
	MaxConnections int
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:           engine.IntOption(config, "port", DefaultPort()),
		SSLMode:        DefaultSSLMode(),
		MaxConnections: engine.IntOption(config, "max_connections", 0),
	}

	var err error
	if cfg.Host, err = engine.StringOption(config, "host", true); err != nil {
		return nil, err
	}
	if cfg.User, err = engine.StringOption(config, "user", true); err != nil {
		return nil, err
	}
	cfg.Password, _ = engine.StringOption(config, "password", false)
	if cfg.Database, err = engine.StringOption(config, "database", true); err != nil {
		return nil, err
	}
	if sslMode, _ := engine.StringOption(config, "ssl_mode", false); sslMode != "" {
		cfg.SSLMode = sslMode
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	return cfg, nil
}
