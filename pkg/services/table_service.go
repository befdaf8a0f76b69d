package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// TableService provisions and drops tables and serves their schemas.
type TableService interface {
	// CreateTable validates table and issues CREATE TABLE.
	CreateTable(ctx context.Context, table *models.Table) error

	// DropTable issues DROP TABLE and removes every table statement owned
	// by the table.
	DropTable(ctx context.Context, name string) error

	// GetTable returns the live schema or apperrors.ErrNotFound.
	GetTable(ctx context.Context, name string) (*models.Table, error)
}

type tableService struct {
	engine        engine.Engine
	cache         catalog.MetadataCache
	statementRepo repositories.StatementRepository
	logger        *zap.Logger
}

// NewTableService creates a table service.
func NewTableService(
	eng engine.Engine,
	cache catalog.MetadataCache,
	statementRepo repositories.StatementRepository,
	logger *zap.Logger,
) TableService {
	return &tableService{
		engine:        eng,
		cache:         cache,
		statementRepo: statementRepo,
		logger:        named(logger, "tables"),
	}
}

// validateTableShape checks the declared shape without consulting the engine.
func validateTableShape(table *models.Table) error {
	if table == nil {
		return fmt.Errorf("table definition is required: %w", apperrors.ErrValidation)
	}
	if table.ColumnsAmount != len(table.Columns) {
		return fmt.Errorf("columnsAmount %d does not match %d columns: %w",
			table.ColumnsAmount, len(table.Columns), apperrors.ErrValidation)
	}
	for _, col := range table.Columns {
		if strings.EqualFold(col.Name, table.PrimaryKey) {
			return nil
		}
	}
	return fmt.Errorf("primary key %q is not a declared column: %w", table.PrimaryKey, apperrors.ErrValidation)
}

func (s *tableService) CreateTable(ctx context.Context, table *models.Table) error {
	if err := validateTableShape(table); err != nil {
		return err
	}

	statement, err := sql.BuildCreateTable(table)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	if s.cache.TableExists(ctx, table.Name) {
		return fmt.Errorf("table %s: %w", table.Name, apperrors.ErrConflict)
	}

	if err := s.engine.Execute(ctx, statement); err != nil {
		s.cache.InvalidateAll()
		s.logger.Error("Failed to create table",
			zap.String("table", table.Name),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("create table %s: %w: %w", table.Name, apperrors.ErrEngine, err)
	}

	s.cache.RegisterTable(table.Name)
	s.logger.Info("Created table",
		zap.String("table", table.Name),
		zap.Int("columns", len(table.Columns)))
	return nil
}

func (s *tableService) DropTable(ctx context.Context, name string) error {
	if !s.cache.TableExists(ctx, name) {
		return fmt.Errorf("table %s: %w", name, apperrors.ErrNotFound)
	}

	statement, err := sql.BuildDropTable(name)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	if err := s.engine.Execute(ctx, statement); err != nil {
		s.cache.InvalidateAll()
		s.logger.Error("Failed to drop table",
			zap.String("table", name),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("drop table %s: %w: %w", name, apperrors.ErrEngine, err)
	}

	s.cache.ForgetTable(name)
	removed := s.statementRepo.DeleteByTable(ctx, name)
	s.logger.Info("Dropped table",
		zap.String("table", name),
		zap.Int("statements_removed", removed))
	return nil
}

func (s *tableService) GetTable(ctx context.Context, name string) (*models.Table, error) {
	table, ok := s.cache.GetTableSchema(ctx, name)
	if !ok {
		return nil, fmt.Errorf("table %s: %w", name, apperrors.ErrNotFound)
	}
	return table, nil
}
