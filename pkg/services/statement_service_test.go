package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
)

func textOfLength(n int) string {
	return strings.Repeat("x", n)
}

func fixtureWithTables(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := newFixture(t)
	for _, name := range names {
		f.engine.addTable(name, engine.Column{Name: "id", DataType: "integer", IsPrimaryKey: true})
	}
	return f
}

func TestAddTableStatement(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "t", Query: "SELECT * FROM T"}))

	stmt, err := f.statementSvc.GetTableStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &models.TableStatement{ID: 1, TableName: "t", Query: "SELECT * FROM T"}, stmt)

	list, err := f.statementSvc.ListByTable(ctx, "T")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddTableStatement_Failures(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()

	err := f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "missing", Query: "SELECT 1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: textOfLength(121)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: "SELECT 1"}))
	err = f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: "SELECT 1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	assert.ErrorIs(t, f.statementSvc.AddTableStatement(ctx, nil), apperrors.ErrValidation)
}

func TestStatementLengthBoundary(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()

	assert.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: textOfLength(120)}))
	assert.ErrorIs(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 2, TableName: "T", Query: textOfLength(121)}), apperrors.ErrValidation)
	assert.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 3, Query: textOfLength(120)}))
	assert.ErrorIs(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 4, Query: textOfLength(121)}), apperrors.ErrValidation)

	// Length is measured in characters.
	assert.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 5, Query: strings.Repeat("я", 120)}))
}

func TestStatementService_ConfiguredMaxLength(t *testing.T) {
	eng := newFakeEngine()
	cache := catalog.NewMetadataCache(eng, nil)
	svc := NewStatementService(eng, cache, repositories.NewStatementRepository(), 10, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.NoError(t, svc.AddSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: textOfLength(10)}))
	assert.ErrorIs(t, svc.AddSingleStatement(ctx, &models.SingleStatement{ID: 2, Query: textOfLength(11)}), apperrors.ErrValidation)
}

func TestUpdateTableStatement_PoisonsOnOversize(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: "SELECT 1"}))

	err := f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: textOfLength(121)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	stmt, err := f.statementSvc.GetTableStatement(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stmt.Query, "oversized update must blank the stored text")
	assert.Equal(t, "T", stmt.TableName)
}

func TestUpdateTableStatement_MovesBetweenTables(t *testing.T) {
	f := fixtureWithTables(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "a", Query: "SELECT 1"}))
	require.NoError(t, f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "b", Query: "SELECT 2"}))

	onA, err := f.statementSvc.ListByTable(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, onA)

	onB, err := f.statementSvc.ListByTable(ctx, "B")
	require.NoError(t, err)
	require.Len(t, onB, 1)
	assert.Equal(t, "SELECT 2", onB[0].Query)
}

func TestUpdateTableStatement_Failures(t *testing.T) {
	f := fixtureWithTables(t, "a")
	ctx := context.Background()

	err := f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 9, TableName: "a", Query: "SELECT 1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "a", Query: "SELECT 1"}))

	err = f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "missing", Query: "SELECT 2"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stmt, err := f.statementSvc.GetTableStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt.Query, "a missing target table leaves the statement untouched")
	assert.Equal(t, "a", stmt.TableName)

	// Same table, different case: no existence check needed.
	require.NoError(t, f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "A", Query: "SELECT 3"}))
}

func TestDeleteTableStatement(t *testing.T) {
	f := fixtureWithTables(t, "a")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "a", Query: "SELECT 1"}))
	require.NoError(t, f.statementSvc.DeleteTableStatement(ctx, 1))

	assert.ErrorIs(t, f.statementSvc.DeleteTableStatement(ctx, 1), apperrors.ErrNotFound)
	list, err := f.statementSvc.ListByTable(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecuteTableStatement_InvalidatesEvenOnFailure(t *testing.T) {
	f := fixtureWithTables(t, "a")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "a", Query: "ALTER TABLE a ADD COLUMN x int"}))

	f.engine.executeErr = errors.New("syntax error")
	err := f.statementSvc.ExecuteTableStatement(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrEngine)
	f.engine.executeErr = nil

	// The failed statement may still have changed the schema.
	f.engine.addTable("side_effect")
	assert.True(t, f.cache.TableExists(ctx, "side_effect"))

	require.NoError(t, f.statementSvc.ExecuteTableStatement(ctx, 1))
	f.engine.addTable("another")
	assert.True(t, f.cache.TableExists(ctx, "another"))

	assert.ErrorIs(t, f.statementSvc.ExecuteTableStatement(ctx, 99), apperrors.ErrNotFound)
}

func TestExecuteSingleStatement_CreatesTableVisibleToCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.False(t, f.cache.TableExists(ctx, "raw"))
	require.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: "CREATE TABLE raw (id int PRIMARY KEY)"}))
	require.NoError(t, f.statementSvc.ExecuteSingleStatement(ctx, 1))

	assert.True(t, f.cache.TableExists(ctx, "RAW"))
}

func TestSingleStatementLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 2, Query: "SELECT 2"}))
	require.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: "SELECT 1"}))
	assert.ErrorIs(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: "SELECT 1"}), apperrors.ErrConflict)

	require.NoError(t, f.statementSvc.UpdateSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: "SELECT 10"}))
	stmt, err := f.statementSvc.GetSingleStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 10", stmt.Query)

	assert.ErrorIs(t, f.statementSvc.UpdateSingleStatement(ctx, &models.SingleStatement{ID: 1, Query: textOfLength(121)}), apperrors.ErrValidation)
	stmt, err = f.statementSvc.GetSingleStatement(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stmt.Query)

	assert.ErrorIs(t, f.statementSvc.UpdateSingleStatement(ctx, &models.SingleStatement{ID: 7, Query: "SELECT 1"}), apperrors.ErrNotFound)

	list := f.statementSvc.ListSingleStatements(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 2, list[1].ID)

	require.NoError(t, f.statementSvc.DeleteSingleStatement(ctx, 1))
	assert.ErrorIs(t, f.statementSvc.DeleteSingleStatement(ctx, 1), apperrors.ErrNotFound)
	_, err = f.statementSvc.GetSingleStatement(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.statementSvc.ExecuteSingleStatement(ctx, 1), apperrors.ErrNotFound)
}

func TestListByTable_UnknownTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.statementSvc.ListByTable(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTableStatements_AscendingIDs(t *testing.T) {
	f := fixtureWithTables(t, "a", "b")
	ctx := context.Background()

	for _, s := range []*models.TableStatement{
		{ID: 30, TableName: "a", Query: "SELECT 1"},
		{ID: 10, TableName: "b", Query: "SELECT 1"},
		{ID: 20, TableName: "a", Query: "SELECT 1"},
	} {
		require.NoError(t, f.statementSvc.AddTableStatement(ctx, s))
	}

	var got []int
	for _, s := range f.statementSvc.ListTableStatements(ctx) {
		got = append(got, s.ID)
	}
	assert.Equal(t, []int{10, 20, 30}, got)
}

// dropAfterCheckCache runs drop once, right after the first existence check
// it answers, so the drop lands between the check and the index.
type dropAfterCheckCache struct {
	catalog.MetadataCache
	once sync.Once
	drop func()
}

func (c *dropAfterCheckCache) TableExists(ctx context.Context, name string) bool {
	exists := c.MetadataCache.TableExists(ctx, name)
	c.once.Do(c.drop)
	return exists
}

func TestAddTableStatement_TableDroppedConcurrently(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()
	cache := &dropAfterCheckCache{MetadataCache: f.cache}
	cache.drop = func() { require.NoError(t, f.tableSvc.DropTable(ctx, "T")) }
	svc := NewStatementService(f.engine, cache, f.statements, 0, zaptest.NewLogger(t))

	err := svc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: "SELECT 1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetTableStatement(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "no statement may outlive its table")
	assert.Empty(t, f.statements.ListTableStatements(ctx))
}

func TestUpdateTableStatement_TargetDroppedConcurrently(t *testing.T) {
	f := fixtureWithTables(t, "a", "b")
	ctx := context.Background()
	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "a", Query: "SELECT 1"}))

	cache := &dropAfterCheckCache{MetadataCache: f.cache}
	cache.drop = func() { require.NoError(t, f.tableSvc.DropTable(ctx, "b")) }
	svc := NewStatementService(f.engine, cache, f.statements, 0, zaptest.NewLogger(t))

	err := svc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "b", Query: "SELECT 2"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, f.statements.ListTableStatements(ctx))
}

func TestUpdateStatementLengthBoundary(t *testing.T) {
	f := fixtureWithTables(t, "T")
	ctx := context.Background()

	require.NoError(t, f.statementSvc.AddTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: "SELECT 1"}))
	require.NoError(t, f.statementSvc.AddSingleStatement(ctx, &models.SingleStatement{ID: 2, Query: "SELECT 1"}))

	require.NoError(t, f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: textOfLength(120)}))
	tableStmt, err := f.statementSvc.GetTableStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, textOfLength(120), tableStmt.Query)

	require.NoError(t, f.statementSvc.UpdateSingleStatement(ctx, &models.SingleStatement{ID: 2, Query: textOfLength(120)}))
	singleStmt, err := f.statementSvc.GetSingleStatement(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, textOfLength(120), singleStmt.Query)

	assert.ErrorIs(t, f.statementSvc.UpdateTableStatement(ctx, &models.TableStatement{ID: 1, TableName: "T", Query: textOfLength(121)}), apperrors.ErrValidation)
	assert.ErrorIs(t, f.statementSvc.UpdateSingleStatement(ctx, &models.SingleStatement{ID: 2, Query: textOfLength(121)}), apperrors.ErrValidation)

	tableStmt, err = f.statementSvc.GetTableStatement(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tableStmt.Query)
	singleStmt, err = f.statementSvc.GetSingleStatement(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, singleStmt.Query)
}
