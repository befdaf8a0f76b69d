package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

// StatementRepository stores registered statements in memory.
// Table-scoped and single statements share one id namespace.
// Returned statements are copies; mutate through the repository.
type StatementRepository interface {
	// CreateTableStatement stores stmt. Returns apperrors.ErrConflict if the id
	// is already used by a statement of either kind.
	CreateTableStatement(ctx context.Context, stmt *models.TableStatement) error
	CreateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error

	// Get* return apperrors.ErrNotFound if the id is unknown in that namespace.
	GetTableStatement(ctx context.Context, id int) (*models.TableStatement, error)
	GetSingleStatement(ctx context.Context, id int) (*models.SingleStatement, error)

	// UpdateTableStatement replaces text and owner, moving the id between
	// per-table indexes when the owner changes.
	UpdateTableStatement(ctx context.Context, stmt *models.TableStatement) error
	UpdateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error

	// Poison* blank the stored text of an existing statement.
	PoisonTableStatement(ctx context.Context, id int) error
	PoisonSingleStatement(ctx context.Context, id int) error

	DeleteTableStatement(ctx context.Context, id int) error
	DeleteSingleStatement(ctx context.Context, id int) error

	// ListByTable returns the statements owned by tableName in ascending id
	// order. Table names match case-insensitively.
	ListByTable(ctx context.Context, tableName string) []*models.TableStatement

	// DeleteByTable removes every statement owned by tableName and returns
	// how many were removed.
	DeleteByTable(ctx context.Context, tableName string) int

	ListTableStatements(ctx context.Context) []*models.TableStatement
	ListSingleStatements(ctx context.Context) []*models.SingleStatement

	// Clear removes all statements of both kinds.
	Clear(ctx context.Context)
}

type statementRepository struct {
	mu      sync.RWMutex
	owners  map[int]models.StatementKind
	tables  map[int]*models.TableStatement
	singles map[int]*models.SingleStatement
	byTable map[string]map[int]struct{} // upper-case table name -> ids
}

// NewStatementRepository creates an empty statement repository.
func NewStatementRepository() StatementRepository {
	r := &statementRepository{}
	r.reset()
	return r
}

func (r *statementRepository) reset() {
	r.owners = make(map[int]models.StatementKind)
	r.tables = make(map[int]*models.TableStatement)
	r.singles = make(map[int]*models.SingleStatement)
	r.byTable = make(map[string]map[int]struct{})
}

func tableKey(name string) string {
	return strings.ToUpper(name)
}

func (r *statementRepository) claimLocked(id int, kind models.StatementKind) error {
	if owner, ok := r.owners[id]; ok {
		return fmt.Errorf("statement %d already registered as %s statement: %w", id, owner, apperrors.ErrConflict)
	}
	r.owners[id] = kind
	return nil
}

func (r *statementRepository) indexLocked(tableName string, id int) {
	key := tableKey(tableName)
	ids, ok := r.byTable[key]
	if !ok {
		ids = make(map[int]struct{})
		r.byTable[key] = ids
	}
	ids[id] = struct{}{}
}

func (r *statementRepository) unindexLocked(tableName string, id int) {
	key := tableKey(tableName)
	ids, ok := r.byTable[key]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(r.byTable, key)
	}
}

func (r *statementRepository) CreateTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claimLocked(stmt.ID, models.StatementKindTable); err != nil {
		return err
	}
	stored := *stmt
	r.tables[stmt.ID] = &stored
	r.indexLocked(stmt.TableName, stmt.ID)
	return nil
}

func (r *statementRepository) CreateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claimLocked(stmt.ID, models.StatementKindSingle); err != nil {
		return err
	}
	stored := *stmt
	r.singles[stmt.ID] = &stored
	return nil
}

func (r *statementRepository) GetTableStatement(ctx context.Context, id int) (*models.TableStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stmt, ok := r.tables[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *stmt
	return &out, nil
}

func (r *statementRepository) GetSingleStatement(ctx context.Context, id int) (*models.SingleStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stmt, ok := r.singles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *stmt
	return &out, nil
}

func (r *statementRepository) UpdateTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tables[stmt.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if tableKey(current.TableName) != tableKey(stmt.TableName) {
		r.unindexLocked(current.TableName, stmt.ID)
		r.indexLocked(stmt.TableName, stmt.ID)
	}
	current.TableName = stmt.TableName
	current.Query = stmt.Query
	return nil
}

func (r *statementRepository) UpdateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.singles[stmt.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	current.Query = stmt.Query
	return nil
}

func (r *statementRepository) PoisonTableStatement(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stmt, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	stmt.Query = ""
	return nil
}

func (r *statementRepository) PoisonSingleStatement(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stmt, ok := r.singles[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	stmt.Query = ""
	return nil
}

func (r *statementRepository) DeleteTableStatement(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stmt, ok := r.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.unindexLocked(stmt.TableName, id)
	delete(r.tables, id)
	delete(r.owners, id)
	return nil
}

func (r *statementRepository) DeleteSingleStatement(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.singles[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.singles, id)
	delete(r.owners, id)
	return nil
}

func (r *statementRepository) ListByTable(ctx context.Context, tableName string) []*models.TableStatement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byTable[tableKey(tableName)]
	out := make([]*models.TableStatement, 0, len(ids))
	for id := range ids {
		stmt := *r.tables[id]
		out = append(out, &stmt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *statementRepository) DeleteByTable(ctx context.Context, tableName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tableKey(tableName)
	ids := r.byTable[key]
	for id := range ids {
		delete(r.tables, id)
		delete(r.owners, id)
	}
	delete(r.byTable, key)
	return len(ids)
}

func (r *statementRepository) ListTableStatements(ctx context.Context) []*models.TableStatement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.TableStatement, 0, len(r.tables))
	for _, stmt := range r.tables {
		c := *stmt
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *statementRepository) ListSingleStatements(ctx context.Context) []*models.SingleStatement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.SingleStatement, 0, len(r.singles))
	for _, stmt := range r.singles {
		c := *stmt
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *statementRepository) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}
