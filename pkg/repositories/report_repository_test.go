package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

func sampleReport(id int) *models.Report {
	return &models.Report{
		ID:          id,
		TableAmount: 1,
		Tables: []models.ReportTable{{
			TableName: "t",
			Columns:   []models.Column{{Name: "id", Type: "int4"}},
		}},
	}
}

func TestReportRepository_CreateAndGet(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	in := sampleReport(1)
	require.NoError(t, repo.Create(ctx, in))
	assert.True(t, repo.Exists(ctx, 1))
	assert.False(t, repo.Exists(ctx, 2))

	in.Tables[0].Columns[0].Name = "mutated"

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(1), got)
}

func TestReportRepository_Conflict(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleReport(1)))
	err := repo.Create(ctx, sampleReport(1))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReportRepository_NotFoundAndClear(t *testing.T) {
	repo := NewReportRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Create(ctx, sampleReport(1)))
	repo.Clear(ctx)
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
