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

// UnknownSize is reported for a column whose live size could not be computed.
const UnknownSize = "0"

// ReportService validates report definitions against live schemas and
// serves them with current column sizes.
type ReportService interface {
	// CreateReport stores report after checking every table and column
	// against the engine.
	CreateReport(ctx context.Context, report *models.Report) error

	// GetReport returns the report with a live size per column. Sizing
	// failures degrade the result rather than failing the call.
	GetReport(ctx context.Context, id int) (*models.SizedReport, error)

	// Clear drops all reports.
	Clear(ctx context.Context)
}

type reportService struct {
	engine     engine.Engine
	cache      catalog.MetadataCache
	reportRepo repositories.ReportRepository
	logger     *zap.Logger
}

// NewReportService creates a report service.
func NewReportService(
	eng engine.Engine,
	cache catalog.MetadataCache,
	reportRepo repositories.ReportRepository,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		engine:     eng,
		cache:      cache,
		reportRepo: reportRepo,
		logger:     named(logger, "reports"),
	}
}

func (s *reportService) CreateReport(ctx context.Context, report *models.Report) error {
	if report == nil {
		return fmt.Errorf("report is required: %w", apperrors.ErrValidation)
	}
	if report.TableAmount != len(report.Tables) {
		return fmt.Errorf("tableAmount %d does not match %d tables: %w",
			report.TableAmount, len(report.Tables), apperrors.ErrValidation)
	}
	if s.reportRepo.Exists(ctx, report.ID) {
		return fmt.Errorf("report %d: %w", report.ID, apperrors.ErrConflict)
	}

	for _, table := range report.Tables {
		if err := s.validateTable(ctx, table); err != nil {
			s.logger.Warn("Rejected report",
				zap.Int("report_id", report.ID),
				zap.String("table", table.TableName),
				zap.Error(err))
			return err
		}
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return err
	}

	s.logger.Info("Created report",
		zap.Int("report_id", report.ID),
		zap.Int("tables", len(report.Tables)))
	return nil
}

// validateTable requires every declared column to exist on the live table
// with a type in the same normalized family.
func (s *reportService) validateTable(ctx context.Context, table models.ReportTable) error {
	if !s.cache.TableExists(ctx, table.TableName) {
		return fmt.Errorf("table %s: %w", table.TableName, apperrors.ErrNotFound)
	}
	live, ok := s.cache.GetTableSchema(ctx, table.TableName)
	if !ok {
		return fmt.Errorf("schema of table %s: %w", table.TableName, apperrors.ErrNotFound)
	}

	for _, col := range table.Columns {
		if !s.hasColumn(live, col) {
			return fmt.Errorf("column %s %s not found on table %s: %w",
				col.Name, col.Type, table.TableName, apperrors.ErrValidation)
		}
	}
	return nil
}

func (s *reportService) hasColumn(live *models.Table, want models.Column) bool {
	wantType := s.engine.NormalizeType(want.Type)
	for _, c := range live.Columns {
		if strings.EqualFold(c.Name, want.Name) && s.engine.NormalizeType(c.Type) == wantType {
			return true
		}
	}
	return false
}

func (s *reportService) GetReport(ctx context.Context, id int) (*models.SizedReport, error) {
	report, err := s.reportRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", id, err)
	}

	sized, err := s.sizeReport(ctx, report)
	if err != nil {
		s.logger.Warn("Returning report without sizes",
			zap.Int("report_id", id),
			zap.String("error", logging.SanitizeError(err)))
		return report.Unsized(), nil
	}
	return sized, nil
}

// sizeReport attaches a live size to every column. A failing column gets
// UnknownSize; only cancellation or a panic aborts the whole pass.
func (s *reportService) sizeReport(ctx context.Context, report *models.Report) (sized *models.SizedReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			sized = nil
			err = fmt.Errorf("size report %d: %v", report.ID, r)
		}
	}()

	sized = report.Unsized()
	for i := range sized.Tables {
		table := &sized.Tables[i]
		for j := range table.Columns {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			col := &table.Columns[j]
			col.Size = s.columnSize(ctx, report.ID, table.TableName, col.Name)
		}
	}
	return sized, nil
}

func (s *reportService) columnSize(ctx context.Context, reportID int, table, column string) string {
	query, err := sql.BuildColumnSize(table, column)
	if err != nil {
		s.logger.Warn("Cannot size column",
			zap.Int("report_id", reportID),
			zap.String("table", table),
			zap.String("column", column),
			zap.Error(err))
		return UnknownSize
	}

	size, err := s.engine.QueryScalar(ctx, query)
	if err != nil {
		s.logger.Warn("Failed to size column",
			zap.Int("report_id", reportID),
			zap.String("table", table),
			zap.String("column", column),
			zap.String("error", logging.SanitizeError(err)))
		return UnknownSize
	}
	return size
}

func (s *reportService) Clear(ctx context.Context) {
	s.reportRepo.Clear(ctx)
	s.logger.Info("Cleared reports")
}
