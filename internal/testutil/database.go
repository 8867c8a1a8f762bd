package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/maritime-risk-engine/internal/testutil/containers"
)

// One postgres container serves the whole test binary; every test gets its
// own database inside it so state never crosses test boundaries.
var (
	sharedOnce      sync.Once
	sharedContainer *containers.PostgresContainer
	sharedErr       error
)

// TestDB provides an isolated, fully migrated database for one test.
type TestDB struct {
	t      *testing.T
	pool   *pgxpool.Pool
	dbName string
}

// NewTestDB creates a fresh database on the shared test container, applies
// every migration, and returns a connection pool bound to it. Cleanup drops
// the database when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	sharedOnce.Do(func() {
		sharedContainer, sharedErr = containers.NewPostgresContainer(ctx)
	})
	require.NoError(t, sharedErr, "postgres test container failed to start")

	dbName := fmt.Sprintf("mre_test_%d", time.Now().UnixNano())

	adminDB, err := sql.Open("postgres", sharedContainer.ConnectionString)
	require.NoError(t, err)
	defer adminDB.Close()
	_, err = adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err)

	dsn, err := sharedContainer.DatabaseURL(dbName)
	require.NoError(t, err)

	migrateSchema(t, dsn)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	t.Cleanup(func() {
		pool.Close()
		adminDB, err := sql.Open("postgres", sharedContainer.ConnectionString)
		if err != nil {
			t.Logf("failed to reconnect for database cleanup: %v", err)
			return
		}
		defer adminDB.Close()
		if _, err := adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
			t.Logf("failed to drop test database %s: %v", dbName, err)
		}
	})

	return &TestDB{t: t, pool: pool, dbName: dbName}
}

// Pool returns the pgx connection pool bound to the test database.
func (tdb *TestDB) Pool() *pgxpool.Pool {
	return tdb.pool
}

// TruncateTables clears every table for test isolation within one TestDB.
func (tdb *TestDB) TruncateTables() {
	tdb.t.Helper()

	ctx := context.Background()
	tables := []string{
		"evidence_cards",
		"risk_events",
		"owner_cluster_members",
		"owner_clusters",
		"vessel_owners",
		"chain_vessels",
		"merge_chains",
		"merge_candidates",
		"vessel_static",
	}

	for _, table := range tables {
		_, err := tdb.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(tdb.t, err)
	}
}

// AssertRowCount asserts the number of rows in a table.
func (tdb *TestDB) AssertRowCount(table string, expected int) {
	tdb.t.Helper()

	var count int
	err := tdb.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	require.NoError(tdb.t, err)
	require.Equal(tdb.t, expected, count, "expected %d rows in %s, got %d", expected, table, count)
}

// migrateSchema applies the repository's migrations to the given database.
func migrateSchema(t *testing.T, dsn string) {
	t.Helper()

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(), "postgres", driver)
	require.NoError(t, err)

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to apply migrations: %v", err)
	}
}

// migrationsDir locates the migrations directory relative to this source
// file, so tests run from any package directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
