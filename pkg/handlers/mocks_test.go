package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

// mockTableService records calls and returns canned results.
type mockTableService struct {
	createErr error
	dropErr   error
	table     *models.Table
	getErr    error

	created *models.Table
	dropped string
}

func (m *mockTableService) CreateTable(ctx context.Context, table *models.Table) error {
	m.created = table
	return m.createErr
}
func (m *mockTableService) DropTable(ctx context.Context, name string) error {
	m.dropped = name
	return m.dropErr
}
func (m *mockTableService) GetTable(ctx context.Context, name string) (*models.Table, error) {
	return m.table, m.getErr
}

// mockStatementService serves both table and single statement handlers.
type mockStatementService struct {
	err         error
	tableStmt   *models.TableStatement
	singleStmt  *models.SingleStatement
	tableList   []*models.TableStatement
	singleList  []*models.SingleStatement
	lastID      int
	lastTable   *models.TableStatement
	lastSingle  *models.SingleStatement
	executedIDs []int
}

func (m *mockStatementService) AddTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	m.lastTable = stmt
	return m.err
}
func (m *mockStatementService) UpdateTableStatement(ctx context.Context, stmt *models.TableStatement) error {
	m.lastTable = stmt
	return m.err
}
func (m *mockStatementService) DeleteTableStatement(ctx context.Context, id int) error {
	m.lastID = id
	return m.err
}
func (m *mockStatementService) ExecuteTableStatement(ctx context.Context, id int) error {
	m.executedIDs = append(m.executedIDs, id)
	return m.err
}
func (m *mockStatementService) GetTableStatement(ctx context.Context, id int) (*models.TableStatement, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.tableStmt, nil
}
func (m *mockStatementService) ListByTable(ctx context.Context, tableName string) ([]*models.TableStatement, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tableList, nil
}
func (m *mockStatementService) ListTableStatements(ctx context.Context) []*models.TableStatement {
	return m.tableList
}
func (m *mockStatementService) AddSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	m.lastSingle = stmt
	return m.err
}
func (m *mockStatementService) UpdateSingleStatement(ctx context.Context, stmt *models.SingleStatement) error {
	m.lastSingle = stmt
	return m.err
}
func (m *mockStatementService) DeleteSingleStatement(ctx context.Context, id int) error {
	m.lastID = id
	return m.err
}
func (m *mockStatementService) ExecuteSingleStatement(ctx context.Context, id int) error {
	m.executedIDs = append(m.executedIDs, id)
	return m.err
}
func (m *mockStatementService) GetSingleStatement(ctx context.Context, id int) (*models.SingleStatement, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.singleStmt, nil
}
func (m *mockStatementService) ListSingleStatements(ctx context.Context) []*models.SingleStatement {
	return m.singleList
}

type mockReportService struct {
	createErr error
	report    *models.SizedReport
	getErr    error
	created   *models.Report
	cleared   bool
}

func (m *mockReportService) CreateReport(ctx context.Context, report *models.Report) error {
	m.created = report
	return m.createErr
}
func (m *mockReportService) GetReport(ctx context.Context, id int) (*models.SizedReport, error) {
	return m.report, m.getErr
}
func (m *mockReportService) Clear(ctx context.Context) {
	m.cleared = true
}

type mockLifecycleService struct {
	err        error
	calls      int
	dropTables bool
}

func (m *mockLifecycleService) Reset(ctx context.Context, dropTables bool) error {
	m.calls++
	m.dropTables = dropTables
	return m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

// serve routes one request through a mux populated by register.
func serve(register func(*http.ServeMux), method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	register(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
