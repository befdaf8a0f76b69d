// Package sql owns every piece of dynamically built SQL in the service:
// DDL for table provisioning, the report size metric query, and the
// validation and normalization rules applied to caller-supplied names and types.
package sql

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

// BuildCreateTable renders a CREATE TABLE statement for a validated schema.
// The column whose name case-insensitively equals the primary key is annotated.
func BuildCreateTable(table *models.Table) (string, error) {
	if err := ValidateIdentifier(table.Name); err != nil {
		return "", fmt.Errorf("table name: %w", err)
	}
	if len(table.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", table.Name)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(table.Name)
	b.WriteString(" (")
	for i, col := range table.Columns {
		if err := ValidateIdentifier(col.Name); err != nil {
			return "", fmt.Errorf("column name: %w", err)
		}
		if err := ValidateTypeName(col.Type); err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.Name)
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(col.Type))
		if strings.EqualFold(col.Name, table.PrimaryKey) {
			b.WriteString(" PRIMARY KEY")
		}
	}
	b.WriteString(")")
	return b.String(), nil
}

// BuildDropTable renders a DROP TABLE statement.
func BuildDropTable(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("table name: %w", err)
	}
	return "DROP TABLE " + name, nil
}

// BuildColumnSize renders the report size metric: the number of non-null
// values in one column.
func BuildColumnSize(table, column string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("table name: %w", err)
	}
	if err := ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("column name: %w", err)
	}
	return fmt.Sprintf("SELECT COUNT(%s) FROM %s", column, table), nil
}
