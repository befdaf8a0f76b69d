package mssql

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

// Config contains SQL Server connection options. Only SQL authentication is
// supported.
type Config struct {
	Host                   string
	Port                   int
	Database               string
	Username               string
	Password               string
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
	MaxConnections         int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromMap creates a Config from a generic config map.
// ssl_mode "disable" turns encryption off; any other value keeps it on.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:              engine.IntOption(config, "port", DefaultPort()),
		Encrypt:           true,
		ConnectionTimeout: engine.IntOption(config, "connection_timeout", DefaultConnectionTimeout()),
		MaxConnections:    engine.IntOption(config, "max_connections", 0),
	}

	var err error
	if cfg.Host, err = engine.StringOption(config, "host", true); err != nil {
		return nil, err
	}
	if cfg.Database, err = engine.StringOption(config, "database", true); err != nil {
		return nil, err
	}
	if cfg.Username, err = engine.StringOption(config, "user", true); err != nil {
		return nil, err
	}
	cfg.Password, _ = engine.StringOption(config, "password", false)

	switch sslMode, _ := engine.StringOption(config, "ssl_mode", false); sslMode {
	case "disable":
		cfg.Encrypt = false
	case "trust":
		cfg.TrustServerCertificate = true
	}
	if v, ok := config["trust_server_certificate"].(bool); ok {
		cfg.TrustServerCertificate = v
	}

	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	return cfg, nil
}
