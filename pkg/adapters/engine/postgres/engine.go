package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/config"
	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
	"github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// Engine runs statements against PostgreSQL through a pgx pool.
type Engine struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User-provided fields are URL-escaped so passwords containing @, /, # or ?
// survive parsing.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		config.ResolveHostForDocker(cfg.Host),
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
	if cfg.MaxConnections > 0 {
		connStr += fmt.Sprintf("&pool_max_conns=%d", cfg.MaxConnections)
	}
	return connStr
}

// NewEngine creates a pool for cfg. The pool connects lazily; use Ping to
// verify reachability.
func NewEngine(ctx context.Context, cfg *Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &Engine{pool: pool, logger: logger.Named("postgres")}, nil
}

// NewEngineFromPool wraps an existing pool. Close will close it.
func NewEngineFromPool(pool *pgxpool.Pool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{pool: pool, logger: logger.Named("postgres")}
}

func (e *Engine) Execute(ctx context.Context, statement string) error {
	if _, err := e.pool.Exec(ctx, statement); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

func (e *Engine) QueryTableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema = current_schema()
		ORDER BY table_name
	`

	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return names, nil
}

// QueryColumns uses pg_index for primary key detection so that keys created
// as unique indexes are still recognized.
func (e *Engine) QueryColumns(ctx context.Context, table string) ([]engine.Column, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			EXISTS (
				SELECT 1
				FROM pg_index ix
				JOIN pg_class t ON t.oid = ix.indrelid
				JOIN pg_namespace n ON n.oid = t.relnamespace
				JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
				WHERE ix.indisprimary = true
				  AND n.nspname = c.table_schema
				  AND t.relname = c.table_name
				  AND a.attname = c.column_name
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND lower(c.table_name) = lower($1)
		ORDER BY c.ordinal_position
	`

	rows, err := e.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []engine.Column
	for rows.Next() {
		var c engine.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsPrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

func (e *Engine) QueryScalar(ctx context.Context, query string) (string, error) {
	var value any
	if err := e.pool.QueryRow(ctx, query).Scan(&value); err != nil {
		return "", fmt.Errorf("query scalar: %w", err)
	}
	return engine.FormatScalar(value), nil
}

func (e *Engine) NormalizeType(dataType string) string {
	return sql.NormalizeType(dataType, nil)
}

// Ping marks authentication failures (class 28) and unknown databases as
// permanent so startup does not keep retrying them.
func (e *Engine) Ping(ctx context.Context) error {
	err := e.pool.Ping(ctx)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "3D000") {
		return retry.Permanent(err)
	}
	return err
}

func (e *Engine) Close() error {
	e.logger.Debug("Closing pool")
	e.pool.Close()
	return nil
}

var _ engine.Engine = (*Engine)(nil)
