package sqlite

import "github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// Config contains SQLite options.
type Config struct {
	Path string
}

// FromMap creates a Config from a generic config map. An empty path opens
// an in-memory database.
func FromMap(config map[string]any) (*Config, error) {
	path, _ := engine.StringOption(config, "path", false)
	if path == "" {
		path = MemoryPath
	}
	return &Config{Path: path}, nil
}
