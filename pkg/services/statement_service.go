package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// StatementService registers, edits and runs stored SQL statements.
// Table statements are owned by one table; single statements by none.
// Both kinds share one id namespace.
type StatementService interface {
	AddTableStatement(ctx context.Context, stmt *models.TableStatement) error
	// UpdateTableStatement blanks the stored text when the new text is too
	// long, then fails.
	UpdateTableStatement(ctx context.Context, stmt *models.TableStatement) error
	DeleteTableStatement(ctx context.Context, id int) error
	ExecuteTableStatement(ctx context.Context, id int) error
	GetTableStatement(ctx context.Context, id int) (*models.TableStatement, error)
	// ListByTable fails with apperrors.ErrNotFound when the table is unknown.
	ListByTable(ctx context.Context, tableName string) ([]*models.TableStatement, error)
	ListTableStatements(ctx context.Context) []*models.TableStatement

	AddSingleStatement(ctx context.Context, stmt *models.SingleStatement) error
	UpdateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error
	DeleteSingleStatement(ctx context.Context, id int) error
	ExecuteSingleStatement(ctx context.Context, id int) error
	GetSingleStatement(ctx context.Context, id int) (*models.SingleStatement, error)
	ListSingleStatements(ctx context.Context) []*models.SingleStatement
}

type statementService struct {
	engine        engine.Engine
	cache         catalog.MetadataCache
	statementRepo repositories.StatementRepository
	maxLength     int
	logger        *zap.Logger
}

// NewStatementService creates a statement service. Statement texts longer
// than maxLength characters are rejected; a non-positive maxLength selects
// models.MaxStatementLength.
func NewStatementService(
	eng engine.Engine,
	cache catalog.MetadataCache,
	statementRepo repositories.StatementRepository,
	maxLength int,
	logger *zap.Logger,
) StatementService {
	if maxLength <= 0 {
		maxLength = models.MaxStatementLength
	}
	return &statementService{
		engine:        eng,
		cache:         cache,
		statementRepo: statementRepo,
		maxLength:     maxLength,
		logger:        named(logger, "statements"),
	}
}

var errTooLong = errors.New("statement text too long")

// checkLength counts characters, not bytes.
func (s *statementService) checkLength(text string) error {
	if n := utf8.RuneCountInString(text); n > s.maxLength {
		return fmt.Errorf("%w (%d > %d): %w", errTooLong, n, s.maxLength, apperrors.ErrValidation)
	}
	return nil
}

func (s *statementService) AddTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	if stmt == nil {
		return fmt.Errorf("statement is required: %w", apperrors.ErrValidation)
	}
	if err := s.checkLength(stmt.Query); err != nil {
		return err
	}
	if !s.cache.TableExists(ctx, stmt.TableName) {
		return fmt.Errorf("table %s: %w", stmt.TableName, apperrors.ErrNotFound)
	}

	if err := s.statementRepo.CreateTableStatement(ctx, stmt); err != nil {
		return err
	}
	if err := s.ensureOwnerAlive(ctx, stmt.ID, stmt.TableName); err != nil {
		return err
	}

	s.logger.Info("Added table statement",
		zap.Int("statement_id", stmt.ID),
		zap.String("table", stmt.TableName),
		zap.String("query", logging.SanitizeQuery(stmt.Query)))
	return nil
}

func (s *statementService) UpdateTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	if stmt == nil {
		return fmt.Errorf("statement is required: %w", apperrors.ErrValidation)
	}

	current, err := s.statementRepo.GetTableStatement(ctx, stmt.ID)
	if err != nil {
		return fmt.Errorf("table statement %d: %w", stmt.ID, err)
	}

	if err := s.checkLength(stmt.Query); err != nil {
		if perr := s.statementRepo.PoisonTableStatement(ctx, stmt.ID); perr != nil {
			s.logger.Warn("Failed to blank oversized statement",
				zap.Int("statement_id", stmt.ID),
				zap.Error(perr))
		}
		s.logger.Warn("Rejected oversized update; stored text blanked",
			zap.Int("statement_id", stmt.ID),
			zap.Int("length", utf8.RuneCountInString(stmt.Query)))
		return err
	}

	if !strings.EqualFold(current.TableName, stmt.TableName) && !s.cache.TableExists(ctx, stmt.TableName) {
		return fmt.Errorf("table %s: %w", stmt.TableName, apperrors.ErrNotFound)
	}

	if err := s.statementRepo.UpdateTableStatement(ctx, stmt); err != nil {
		return fmt.Errorf("table statement %d: %w", stmt.ID, err)
	}
	if !strings.EqualFold(current.TableName, stmt.TableName) {
		if err := s.ensureOwnerAlive(ctx, stmt.ID, stmt.TableName); err != nil {
			return err
		}
	}

	s.logger.Info("Updated table statement",
		zap.Int("statement_id", stmt.ID),
		zap.String("table", stmt.TableName))
	return nil
}

func (s *statementService) DeleteTableStatement(ctx context.Context, id int) error {
	if err := s.statementRepo.DeleteTableStatement(ctx, id); err != nil {
		return fmt.Errorf("table statement %d: %w", id, err)
	}
	s.logger.Info("Deleted table statement", zap.Int("statement_id", id))
	return nil
}

func (s *statementService) ExecuteTableStatement(ctx context.Context, id int) error {
	stmt, err := s.statementRepo.GetTableStatement(ctx, id)
	if err != nil {
		return fmt.Errorf("table statement %d: %w", id, err)
	}
	return s.execute(ctx, id, stmt.Query)
}

func (s *statementService) GetTableStatement(ctx context.Context, id int) (*models.TableStatement, error) {
	stmt, err := s.statementRepo.GetTableStatement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("table statement %d: %w", id, err)
	}
	return stmt, nil
}

func (s *statementService) ListByTable(ctx context.Context, tableName string) ([]*models.TableStatement, error) {
	if !s.cache.TableExists(ctx, tableName) {
		return nil, fmt.Errorf("table %s: %w", tableName, apperrors.ErrNotFound)
	}
	return s.statementRepo.ListByTable(ctx, tableName), nil
}

func (s *statementService) ListTableStatements(ctx context.Context) []*models.TableStatement {
	return s.statementRepo.ListTableStatements(ctx)
}

// ensureOwnerAlive re-checks the owning table after a statement was indexed
// under it. A DropTable that ran between the first check and the index would
// have cascaded before the statement existed, so the statement is removed
// here instead.
func (s *statementService) ensureOwnerAlive(ctx context.Context, id int, tableName string) error {
	if s.cache.TableExists(ctx, tableName) {
		return nil
	}
	if err := s.statementRepo.DeleteTableStatement(ctx, id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Failed to remove statement of dropped table",
			zap.Int("statement_id", id),
			zap.String("table", tableName),
			zap.Error(err))
	}
	return fmt.Errorf("table %s dropped concurrently: %w", tableName, apperrors.ErrNotFound)
}

// execute runs text and invalidates the metadata cache whatever the
// outcome: a failed DDL statement may still have changed the schema.
func (s *statementService) execute(ctx context.Context, id int, text string) error {
	defer s.cache.InvalidateAll()

	kind := sql.DetectStatementType(text)
	if err := s.engine.Execute(ctx, text); err != nil {
		s.logger.Warn("Statement execution failed",
			zap.Int("statement_id", id),
			zap.String("statement_type", string(kind)),
			zap.String("query", logging.SanitizeQuery(text)),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("execute statement %d: %w: %w", id, apperrors.ErrEngine, err)
	}

	s.logger.Info("Executed statement",
		zap.Int("statement_id", id),
		zap.String("statement_type", string(kind)),
		zap.Bool("schema_change", kind.ChangesSchema()))
	return nil
}
