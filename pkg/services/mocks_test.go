package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tables/pkg/sql"
)

// ============================================================================
// Fake engine
// ============================================================================

var (
	createPattern = regexp.MustCompile(`(?i)^CREATE TABLE (\w+) \((.*)\)$`)
	dropPattern   = regexp.MustCompile(`(?i)^DROP TABLE (\w+)$`)
	countPattern  = regexp.MustCompile(`(?i)^SELECT COUNT\((\w+)\) FROM (\w+)$`)
)

type fakeTable struct {
	name    string
	columns []engine.Column
}

// fakeEngine understands the DDL the services build and keeps a table
// catalog in memory. Everything else it executes succeeds unless
// executeErr is set.
type fakeEngine struct {
	mu sync.Mutex

	tables   map[string]*fakeTable // upper-case name
	executed []string

	executeErr    error
	tableNamesErr error
	sizes         map[string]string // "TABLE.COLUMN" -> size
	scalarErr     map[string]error  // "TABLE.COLUMN" -> error
	scalarPanic   bool
	scalarCalls   int
	columnsCalls  int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		tables:    make(map[string]*fakeTable),
		sizes:     make(map[string]string),
		scalarErr: make(map[string]error),
	}
}

// addTable seeds a table as if created out-of-band.
func (f *fakeEngine) addTable(name string, columns ...engine.Column) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[strings.ToUpper(name)] = &fakeTable{name: name, columns: columns}
}

func (f *fakeEngine) hasTable(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tables[strings.ToUpper(name)]
	return ok
}

func (f *fakeEngine) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func (f *fakeEngine) Execute(ctx context.Context, statement string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.executed = append(f.executed, statement)
	if f.executeErr != nil {
		return f.executeErr
	}

	if m := createPattern.FindStringSubmatch(statement); m != nil {
		key := strings.ToUpper(m[1])
		if _, ok := f.tables[key]; ok {
			return fmt.Errorf("relation %q already exists", m[1])
		}
		table := &fakeTable{name: m[1]}
		for _, def := range splitTopLevel(m[2]) {
			name, rest, _ := strings.Cut(def, " ")
			col := engine.Column{Name: name, DataType: rest}
			if strings.HasSuffix(rest, " PRIMARY KEY") {
				col.DataType = strings.TrimSuffix(rest, " PRIMARY KEY")
				col.IsPrimaryKey = true
			}
			table.columns = append(table.columns, col)
		}
		f.tables[key] = table
		return nil
	}

	if m := dropPattern.FindStringSubmatch(statement); m != nil {
		key := strings.ToUpper(m[1])
		if _, ok := f.tables[key]; !ok {
			return fmt.Errorf("table %q does not exist", m[1])
		}
		delete(f.tables, key)
	}
	return nil
}

func (f *fakeEngine) QueryTableNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tableNamesErr != nil {
		return nil, f.tableNamesErr
	}
	names := make([]string, 0, len(f.tables))
	for _, t := range f.tables {
		names = append(names, t.name)
	}
	return names, nil
}

func (f *fakeEngine) QueryColumns(ctx context.Context, table string) ([]engine.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columnsCalls++
	t, ok := f.tables[strings.ToUpper(table)]
	if !ok {
		return nil, nil
	}
	return append([]engine.Column(nil), t.columns...), nil
}

func (f *fakeEngine) QueryScalar(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scalarCalls++

	if f.scalarPanic {
		panic("driver exploded")
	}
	m := countPattern.FindStringSubmatch(query)
	if m == nil {
		return "", errors.New("unsupported query")
	}
	key := strings.ToUpper(m[2]) + "." + strings.ToUpper(m[1])
	if err, ok := f.scalarErr[key]; ok {
		return "", err
	}
	if _, ok := f.tables[strings.ToUpper(m[2])]; !ok {
		return "", fmt.Errorf("table %q does not exist", m[2])
	}
	if size, ok := f.sizes[key]; ok {
		return size, nil
	}
	return "0", nil
}

func (f *fakeEngine) NormalizeType(dataType string) string {
	return sql.NormalizeType(dataType, nil)
}

func (f *fakeEngine) Ping(ctx context.Context) error { return nil }
func (f *fakeEngine) Close() error                   { return nil }

// ============================================================================
// Fixture
// ============================================================================

type fixture struct {
	engine     *fakeEngine
	cache      catalog.MetadataCache
	statements repositories.StatementRepository
	reports    repositories.ReportRepository

	tableSvc     TableService
	statementSvc StatementService
	reportSvc    ReportService
	lifecycleSvc LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithEngine(t, newFakeEngine())
}

func newFixtureWithEngine(t *testing.T, eng *fakeEngine) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	f := &fixture{
		engine:     eng,
		cache:      catalog.NewMetadataCache(eng, logger),
		statements: repositories.NewStatementRepository(),
		reports:    repositories.NewReportRepository(),
	}
	f.tableSvc = NewTableService(eng, f.cache, f.statements, logger)
	f.statementSvc = NewStatementService(eng, f.cache, f.statements, 0, logger)
	f.reportSvc = NewReportService(eng, f.cache, f.reports, logger)
	f.lifecycleSvc = NewLifecycleService(f.tableSvc, f.reportSvc, f.statements, f.cache, logger)
	return f
}
