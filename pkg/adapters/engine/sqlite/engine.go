// Package sqlite is the embedded engine adapter. It backs local runs and the
// end-to-end service tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
)

// Engine runs statements against a SQLite database file.
type Engine struct {
	*engine.DB
}

// NewEngine opens the database at cfg.Path.
func NewEngine(cfg *Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	logger.Named("sqlite").Debug("Opened SQLite database", zap.String("path", cfg.Path))
	return &Engine{DB: engine.NewDB(db, nil)}, nil
}

func (e *Engine) QueryTableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	return e.QueryStrings(ctx, query)
}

// QueryColumns returns declared column types verbatim; SQLite keeps the
// spelling used in CREATE TABLE.
func (e *Engine) QueryColumns(ctx context.Context, table string) ([]engine.Column, error) {
	const query = `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`
	return e.QueryColumnRows(ctx, query, table)
}

var _ engine.Engine = (*Engine)(nil)
