package engine

import (
	"context"
	"database/sql"
	"fmt"

	sqltypes "github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// DB implements the dialect-independent half of Engine on top of a
// database/sql handle. Adapters embed it and add their catalog queries.
type DB struct {
	db      *sql.DB
	aliases map[string]string
}

// NewDB wraps db. aliases are dialect type spellings consulted before the
// shared alias table during NormalizeType.
func NewDB(db *sql.DB, aliases map[string]string) *DB {
	return &DB{db: db, aliases: aliases}
}

// SQL exposes the underlying handle to adapters.
func (d *DB) SQL() *sql.DB {
	return d.db
}

func (d *DB) Execute(ctx context.Context, statement string) error {
	if _, err := d.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

func (d *DB) QueryScalar(ctx context.Context, query string) (string, error) {
	var value any
	if err := d.db.QueryRowContext(ctx, query).Scan(&value); err != nil {
		return "", fmt.Errorf("query scalar: %w", err)
	}
	return FormatScalar(value), nil
}

func (d *DB) NormalizeType(dataType string) string {
	return sqltypes.NormalizeType(dataType, d.aliases)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// QueryStrings runs a single-column query and collects the values.
func (d *DB) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return values, nil
}

// QueryColumnRows runs a catalog query whose rows are
// (name, data type, primary key flag) and collects them.
func (d *DB) QueryColumnRows(ctx context.Context, query string, args ...any) ([]Column, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			c  Column
			pk int64
		)
		if err := rows.Scan(&c.Name, &c.DataType, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.IsPrimaryKey = pk != 0
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}
