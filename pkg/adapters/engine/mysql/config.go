package mysql

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

// Config contains MySQL connection options.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	TLS            string // go-sql-driver tls parameter: "false", "preferred", "skip-verify", "true"
	MaxConnections int
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// tlsModes maps the shared ssl_mode vocabulary onto the driver's tls values.
var tlsModes = map[string]string{
	"disable":     "false",
	"prefer":      "preferred",
	"require":     "skip-verify",
	"verify-ca":   "true",
	"verify-full": "true",
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:           engine.IntOption(config, "port", DefaultPort()),
		TLS:            "preferred",
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
		tls, ok := tlsModes[sslMode]
		if !ok {
			return nil, fmt.Errorf("unsupported ssl_mode: %s", sslMode)
		}
		cfg.TLS = tls
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	return cfg, nil
}
