// Package catalog keeps a lazily refreshed view of the engine's tables and
// their column schemas.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
	"github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// MetadataCache answers table-existence and schema questions without a
// round trip to the engine on every call.
type MetadataCache interface {
	// TableExists reports whether name is a live table, case-insensitively.
	TableExists(ctx context.Context, name string) bool

	// TableNames returns the known table names as the engine spells them.
	TableNames(ctx context.Context) []string

	// GetTableSchema returns a copy of the table's schema, introspecting the
	// engine on a miss. ok is false when the table does not exist or could
	// not be introspected.
	GetTableSchema(ctx context.Context, name string) (*models.Table, bool)

	// RegisterTable records a table created through this process. Like any
	// DDL it also clears schemas and schedules a name refresh.
	RegisterTable(name string)

	// ForgetTable removes a table dropped through this process.
	ForgetTable(name string)

	// InvalidateAll marks the name set stale and discards every schema.
	InvalidateAll()
}

type schemaEntry struct {
	table *models.Table // nil means the table is known to be absent
}

type metadataCache struct {
	engine engine.Engine
	logger *zap.Logger

	mu         sync.RWMutex
	names      map[string]string // canonical -> engine spelling
	stale      bool
	schemas    map[string]schemaEntry
	generation uint64

	refresh singleflight.Group
}

// NewMetadataCache creates a cache over eng. The name set starts stale, so
// the first lookup loads it.
func NewMetadataCache(eng engine.Engine, logger *zap.Logger) MetadataCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &metadataCache{
		engine:  eng,
		logger:  logger.Named("catalog"),
		names:   make(map[string]string),
		stale:   true,
		schemas: make(map[string]schemaEntry),
	}
}

// refreshTimeout bounds a shared name refresh, which runs detached from the
// cancellation of whichever caller started it.
const refreshTimeout = 30 * time.Second

func canonical(name string) string {
	return strings.ToUpper(name)
}

func (c *metadataCache) TableExists(ctx context.Context, name string) bool {
	c.ensureNames(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[canonical(name)]
	return ok
}

func (c *metadataCache) TableNames(ctx context.Context) []string {
	c.ensureNames(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.names))
	for _, n := range c.names {
		names = append(names, n)
	}
	return names
}

// ensureNames reloads the name set if it is stale. Concurrent callers share
// one engine round trip. On failure the previous set is kept and the cache
// stays stale so the next call retries. The fetch ignores ctx cancellation:
// other callers may be waiting on the same flight.
func (c *metadataCache) ensureNames(ctx context.Context) {
	c.mu.RLock()
	stale := c.stale
	c.mu.RUnlock()
	if !stale {
		return
	}

	_, _, _ = c.refresh.Do("names", func() (any, error) {
		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		names, err := c.engine.QueryTableNames(fetchCtx)
		if err != nil {
			c.logger.Warn("Failed to refresh table names",
				zap.String("error", logging.SanitizeError(err)))
			return nil, err
		}

		fresh := make(map[string]string, len(names))
		for _, n := range names {
			fresh[canonical(n)] = n
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.names = fresh
		// An invalidation raced with the fetch; the result may predate it.
		c.stale = c.generation != gen
		c.logger.Debug("Refreshed table names", zap.Int("count", len(fresh)))
		return nil, nil
	})
}

func (c *metadataCache) GetTableSchema(ctx context.Context, name string) (*models.Table, bool) {
	key := canonical(name)

	c.mu.RLock()
	entry, cached := c.schemas[key]
	gen := c.generation
	c.mu.RUnlock()

	if cached {
		if entry.table == nil {
			return nil, false
		}
		return entry.table.Clone(), true
	}

	table, err := c.introspect(ctx, name)
	if err != nil {
		// Not cached: a later call may succeed.
		c.logger.Warn("Failed to introspect table",
			zap.String("table", name),
			zap.String("error", logging.SanitizeError(err)))
		return nil, false
	}

	c.mu.Lock()
	if c.generation == gen {
		c.schemas[key] = schemaEntry{table: table}
	}
	c.mu.Unlock()

	if table == nil {
		return nil, false
	}
	return table.Clone(), true
}

// introspect builds a schema from the engine's column listing. A table with
// no columns does not exist and yields (nil, nil).
func (c *metadataCache) introspect(ctx context.Context, name string) (*models.Table, error) {
	columns, err := c.engine.QueryColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	table := &models.Table{
		Name:          name,
		ColumnsAmount: len(columns),
		Columns:       make([]models.Column, 0, len(columns)),
	}
	c.mu.RLock()
	if spelled, ok := c.names[canonical(name)]; ok {
		table.Name = spelled
	}
	c.mu.RUnlock()

	for _, col := range columns {
		table.Columns = append(table.Columns, models.Column{
			Name: col.Name,
			Type: sql.StripTypeQualifiers(col.DataType),
		})
		if col.IsPrimaryKey && table.PrimaryKey == "" {
			table.PrimaryKey = strings.ToLower(col.Name)
		}
	}

	return table, nil
}

func (c *metadataCache) RegisterTable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[canonical(name)] = name
	c.stale = true
	c.clearSchemasLocked()
}

func (c *metadataCache) ForgetTable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names, canonical(name))
	c.stale = true
	c.clearSchemasLocked()
}

func (c *metadataCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
	c.clearSchemasLocked()
}

// clearSchemasLocked drops every cached schema and bumps the generation so
// in-flight fetches do not repopulate from pre-change state.
func (c *metadataCache) clearSchemasLocked() {
	c.schemas = make(map[string]schemaEntry)
	c.generation++
}
