package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

func (s *statementService) AddSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	if stmt == nil {
		return fmt.Errorf("statement is required: %w", apperrors.ErrValidation)
	}
	if err := s.checkLength(stmt.Query); err != nil {
		return err
	}
	if err := s.statementRepo.CreateSingleStatement(ctx, stmt); err != nil {
		return err
	}

	s.logger.Info("Added single statement",
		zap.Int("statement_id", stmt.ID),
		zap.String("query", logging.SanitizeQuery(stmt.Query)))
	return nil
}

func (s *statementService) UpdateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	if stmt == nil {
		return fmt.Errorf("statement is required: %w", apperrors.ErrValidation)
	}
	if _, err := s.statementRepo.GetSingleStatement(ctx, stmt.ID); err != nil {
		return fmt.Errorf("single statement %d: %w", stmt.ID, err)
	}

	if err := s.checkLength(stmt.Query); err != nil {
		if perr := s.statementRepo.PoisonSingleStatement(ctx, stmt.ID); perr != nil {
			s.logger.Warn("Failed to blank oversized statement",
				zap.Int("statement_id", stmt.ID),
				zap.Error(perr))
		}
		s.logger.Warn("Rejected oversized update; stored text blanked",
			zap.Int("statement_id", stmt.ID),
			zap.Int("length", utf8.RuneCountInString(stmt.Query)))
		return err
	}

	if err := s.statementRepo.UpdateSingleStatement(ctx, stmt); err != nil {
		return fmt.Errorf("single statement %d: %w", stmt.ID, err)
	}
	s.logger.Info("Updated single statement", zap.Int("statement_id", stmt.ID))
	return nil
}

func (s *statementService) DeleteSingleStatement(ctx context.Context, id int) error {
	if err := s.statementRepo.DeleteSingleStatement(ctx, id); err != nil {
		return fmt.Errorf("single statement %d: %w", id, err)
	}
	s.logger.Info("Deleted single statement", zap.Int("statement_id", id))
	return nil
}

func (s *statementService) ExecuteSingleStatement(ctx context.Context, id int) error {
	stmt, err := s.statementRepo.GetSingleStatement(ctx, id)
	if err != nil {
		return fmt.Errorf("single statement %d: %w", id, err)
	}
	return s.execute(ctx, id, stmt.Query)
}

func (s *statementService) GetSingleStatement(ctx context.Context, id int) (*models.SingleStatement, error) {
	stmt, err := s.statementRepo.GetSingleStatement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("single statement %d: %w", id, err)
	}
	return stmt, nil
}

func (s *statementService) ListSingleStatements(ctx context.Context) []*models.SingleStatement {
	return s.statementRepo.ListSingleStatements(ctx)
}
