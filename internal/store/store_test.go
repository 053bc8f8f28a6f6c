// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"catalogcms/internal/database"
	"catalogcms/internal/querylog"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "catalogcms")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "catalogcms")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable&connect_timeout=2"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// env is an isolated database for one test: a fresh schema with the
// migrations applied and a query counter on the pool.
type env struct {
	db      *sql.DB
	counter *querylog.Counter
	builder *Builder
}

// testEnv creates a throwaway schema, connects to it and runs migrations.
// If the database is unavailable, the test is skipped. The schema is
// dropped when the test finishes.
func testEnv(t *testing.T) *env {
	t.Helper()

	admin, err := database.Connect(testDSN(), nil)
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	counter := querylog.New(false)
	db, err := database.Connect(testDSN()+"&search_path="+schema, counter)
	if err != nil {
		admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		admin.Close()
		t.Fatalf("connect to schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		admin.Close()
	})

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	counter.Reset()

	return &env{db: db, counter: counter, builder: NewBuilder(db)}
}

// assertNumQueries fails the test unless fn issues exactly want queries.
func (e *env) assertNumQueries(t *testing.T, want int64, fn func()) {
	t.Helper()
	if got := e.counter.Measure(fn); got != want {
		t.Errorf("expected %d queries, got %d", want, got)
	}
}

// assertMaxQueries fails the test if fn issues more than max queries.
func (e *env) assertMaxQueries(t *testing.T, max int64, fn func()) {
	t.Helper()
	if got := e.counter.Measure(fn); got > max {
		t.Errorf("expected at most %d queries, got %d", max, got)
	}
}

// en returns a single-language title map.
func en(title string) map[string]string {
	return map[string]string{"en": title}
}
