package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/config"
	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
)

var typeAliases = map[string]string{
	"tinyint":  "smallint",
	"datetime": "timestamp",
}

// Engine runs statements against MySQL or MariaDB.
type Engine struct {
	*engine.DB
}

func buildDSN(cfg *Config) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(config.ResolveHostForDocker(cfg.Host), strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Database
	dsn.TLSConfig = cfg.TLS
	return dsn.FormatDSN()
}

// NewEngine opens a MySQL handle for cfg.
func NewEngine(cfg *Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	logger.Named("mysql").Debug("Opened MySQL handle",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))
	return &Engine{DB: engine.NewDB(db, typeAliases)}, nil
}

func (e *Engine) QueryTableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	return e.QueryStrings(ctx, query)
}

// QueryColumns reads column_type rather than data_type so declared widths
// like int(11) come back; NormalizeType strips them for comparison.
func (e *Engine) QueryColumns(ctx context.Context, table string) ([]engine.Column, error) {
	const query = `
		SELECT
			column_name,
			column_type,
			CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END AS is_primary_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND LOWER(table_name) = LOWER(?)
		ORDER BY ordinal_position
	`
	return e.QueryColumnRows(ctx, query, table)
}

// Server errors that no amount of waiting will fix.
var permanentErrors = map[uint16]bool{
	1044: true, // access denied to database
	1045: true, // access denied for user
	1049: true, // unknown database
}

func (e *Engine) Ping(ctx context.Context) error {
	err := e.DB.Ping(ctx)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && permanentErrors[myErr.Number] {
		return retry.Permanent(err)
	}
	return err
}

var _ engine.Engine = (*Engine)(nil)
