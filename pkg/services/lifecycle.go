package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
)

// LifecycleService returns the process to an empty state between runs.
type LifecycleService interface {
	// Reset drops every report and statement and invalidates the metadata
	// cache. With dropTables it also drops every table the engine lists.
	Reset(ctx context.Context, dropTables bool) error
}

type lifecycleService struct {
	tableSvc      TableService
	reportSvc     ReportService
	statementRepo repositories.StatementRepository
	cache         catalog.MetadataCache
	logger        *zap.Logger
}

// NewLifecycleService creates a lifecycle service.
func NewLifecycleService(
	tableSvc TableService,
	reportSvc ReportService,
	statementRepo repositories.StatementRepository,
	cache catalog.MetadataCache,
	logger *zap.Logger,
) LifecycleService {
	return &lifecycleService{
		tableSvc:      tableSvc,
		reportSvc:     reportSvc,
		statementRepo: statementRepo,
		cache:         cache,
		logger:        named(logger, "lifecycle"),
	}
}

func (s *lifecycleService) Reset(ctx context.Context, dropTables bool) error {
	s.reportSvc.Clear(ctx)
	s.statementRepo.Clear(ctx)
	s.cache.InvalidateAll()

	if !dropTables {
		s.logger.Info("Reset state")
		return nil
	}

	var errs []error
	names := s.cache.TableNames(ctx)
	for _, name := range names {
		if err := s.tableSvc.DropTable(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("drop %s: %w", name, err))
		}
	}

	s.logger.Info("Reset state and dropped tables",
		zap.Int("tables", len(names)),
		zap.Int("failures", len(errs)))
	return errors.Join(errs...)
}
