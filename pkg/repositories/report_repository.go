package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

// ReportRepository stores validated report definitions in memory.
// Reports are immutable once created.
type ReportRepository interface {
	// Create stores report. Returns apperrors.ErrConflict if the id exists.
	Create(ctx context.Context, report *models.Report) error

	// Get returns a copy of the report or apperrors.ErrNotFound.
	Get(ctx context.Context, id int) (*models.Report, error)

	// Exists reports whether id is taken.
	Exists(ctx context.Context, id int) bool

	// Clear drops every report.
	Clear(ctx context.Context)
}

type reportRepository struct {
	mu      sync.RWMutex
	reports map[int]*models.Report
}

// NewReportRepository creates an empty report repository.
func NewReportRepository() ReportRepository {
	return &reportRepository{reports: make(map[int]*models.Report)}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[report.ID]; ok {
		return fmt.Errorf("report %d: %w", report.ID, apperrors.ErrConflict)
	}
	r.reports[report.ID] = report.Clone()
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id int) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return report.Clone(), nil
}

func (r *reportRepository) Exists(ctx context.Context, id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.reports[id]
	return ok
}

func (r *reportRepository) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = make(map[int]*models.Report)
}
