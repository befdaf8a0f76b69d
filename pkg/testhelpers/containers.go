package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
)

const (
	PostgresImage = "postgres:16-alpine"
	MySQLImage    = "mysql:8.4"

	testUser     = "tables"
	testPassword = "test_password"
	testDatabase = "tables_test"
)

// TestDB is a running engine container shared by the integration tests of
// one package.
type TestDB struct {
	Container testcontainers.Container
	Host      string
	Port      int

	// Pool is set for PostgreSQL containers only.
	Pool *pgxpool.Pool
	// SQL is set for MySQL containers only.
	SQL *sql.DB

	sslMode string
	reset   func(ctx context.Context) error
}

// Config returns the engine config map for the container, in the shape the
// adapters' FromMap accepts.
func (db *TestDB) Config() map[string]any {
	return map[string]any{
		"host":     db.Host,
		"port":     db.Port,
		"user":     testUser,
		"password": testPassword,
		"database": testDatabase,
		"ssl_mode": db.sslMode,
	}
}

// ResetSchema drops every table so each test starts from an empty catalog.
func (db *TestDB) ResetSchema(t *testing.T) {
	t.Helper()

	if err := db.reset(context.Background()); err != nil {
		t.Fatalf("Failed to reset schema: %v", err)
	}
}

// sharedContainer starts a container at most once per test binary.
type sharedContainer struct {
	once sync.Once
	db   *TestDB
	err  error
}

func (s *sharedContainer) get(t *testing.T, start func(ctx context.Context) (*TestDB, error)) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	s.once.Do(func() {
		s.db, s.err = start(context.Background())
	})
	if s.err != nil {
		t.Fatalf("Failed to setup test database: %v", s.err)
	}
	return s.db
}

var (
	sharedPostgres sharedContainer
	sharedMySQL    sharedContainer
)

// GetTestDB returns the shared PostgreSQL container.
func GetTestDB(t *testing.T) *TestDB {
	return sharedPostgres.get(t, startPostgres)
}

// GetMySQLTestDB returns the shared MySQL container.
func GetMySQLTestDB(t *testing.T) *TestDB {
	return sharedMySQL.get(t, startMySQL)
}

// waitReady pings until the server accepts queries; the readiness log line
// can precede the listener by a moment.
func waitReady(ctx context.Context, ping func(context.Context) error) error {
	cfg := &retry.Config{
		MaxRetries:   20,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.5,
	}
	return retry.Do(ctx, cfg, func() error { return ping(ctx) })
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port string) (testcontainers.Container, string, int, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to get container port: %w", err)
	}

	return container, host, mapped.Int(), nil
}

func startPostgres(ctx context.Context) (*TestDB, error) {
	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		// The server logs readiness twice: once for the init run, once for real.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, host, port, err := startContainer(ctx, req, "5432")
	if err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		testUser, testPassword, host, port, testDatabase)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := waitReady(ctx, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres never became ready: %w", err)
	}

	return &TestDB{
		Container: container,
		Host:      host,
		Port:      port,
		Pool:      pool,
		sslMode:   "disable",
		reset: func(ctx context.Context) error {
			_, err := pool.Exec(ctx, "DROP SCHEMA public CASCADE; CREATE SCHEMA public")
			return err
		},
	}, nil
}

func startMySQL(ctx context.Context) (*TestDB, error) {
	req := testcontainers.ContainerRequest{
		Image:        MySQLImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      testDatabase,
			"MYSQL_USER":          testUser,
			"MYSQL_PASSWORD":      testPassword,
			"MYSQL_ROOT_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(120 * time.Second),
	}

	container, host, port, err := startContainer(ctx, req, "3306")
	if err != nil {
		return nil, err
	}

	dsn := mysql.NewConfig()
	dsn.User = testUser
	dsn.Passwd = testPassword
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", host, port)
	dsn.DBName = testDatabase

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	if err := waitReady(ctx, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql never became ready: %w", err)
	}

	return &TestDB{
		Container: container,
		Host:      host,
		Port:      port,
		SQL:       db,
		sslMode:   "disable",
		reset:     func(ctx context.Context) error { return dropMySQLTables(ctx, db) },
	}, nil
}

func dropMySQLTables(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()")
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return err
	}
	for _, name := range tables {
		if _, err := conn.ExecContext(ctx, "DROP TABLE `"+name+"`"); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}
