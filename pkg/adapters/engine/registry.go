package engine

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// AdapterInfo describes a registered engine adapter.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mysql", "sqlserver", "sqlite"
	DisplayName string `json:"display_name"` // "PostgreSQL"
}

// Factory builds an engine from a generic config map.
type Factory func(ctx context.Context, config map[string]any, logger *zap.Logger) (Engine, error)

// AdapterRegistration contains info + factory for an adapter.
type AdapterRegistration struct {
	Info    AdapterInfo
	Factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for an engine type, or nil if the type is not registered.
func GetFactory(engineType string) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[engineType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(engineType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[engineType]
	return ok
}
