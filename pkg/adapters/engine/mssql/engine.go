package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	mssql "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/config"
	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
)

// typeAliases folds SQL Server spellings onto the shared families.
var typeAliases = map[string]string{
	"bit":            "boolean",
	"float":          "double",
	"datetime":       "timestamp",
	"datetime2":      "timestamp",
	"smalldatetime":  "timestamp",
	"datetimeoffset": "timestamptz",
	"ntext":          "text",
}

// Engine runs statements against SQL Server.
type Engine struct {
	*engine.DB
}

func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		config.ResolveHostForDocker(cfg.Host),
		cfg.Port,
		query.Encode(),
	)
}

// NewEngine opens a SQL Server handle for cfg.
func NewEngine(cfg *Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	logger.Named("mssql").Debug("Opened SQL Server handle",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))
	return &Engine{DB: engine.NewDB(db, typeAliases)}, nil
}

func (e *Engine) QueryTableNames(ctx context.Context) ([]string, error) {
	const query = `
	SELECT t.name
	FROM sys.tables t
	WHERE t.is_ms_shipped = 0
	  AND t.schema_id = SCHEMA_ID()
	ORDER BY t.name
	`
	return e.QueryStrings(ctx, query)
}

func (e *Engine) QueryColumns(ctx context.Context, table string) ([]engine.Column, error) {
	const query = `
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(SCHEMA_NAME()) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`
	return e.QueryColumnRows(ctx, query, sql.Named("table", table))
}

// Login failed (18456) and cannot open database (4060) are permanent.
func (e *Engine) Ping(ctx context.Context) error {
	err := e.DB.Ping(ctx)
	var msErr mssql.Error
	if errors.As(err, &msErr) && (msErr.Number == 18456 || msErr.Number == 4060) {
		return retry.Permanent(err)
	}
	return err
}

var _ engine.Engine = (*Engine)(nil)
