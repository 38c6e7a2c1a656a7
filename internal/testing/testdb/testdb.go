package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forgo/shiftboard/api/internal/database"
)

// TestDB is a migrated SurrealDB namespace owned by one test
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	migrationOnce sync.Once
	migrations    []string
	migrationErr  error

	counterMu sync.Mutex
	counter   int64
)

// getTestConfig reads TEST_DB_* variables, defaulting to a local root server
func getTestConfig() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// migrationDir walks up from the package directory looking for migrations/
func migrationDir() string {
	for _, p := range []string{
		"migrations",
		"../migrations",
		"../../migrations",
		"../../../migrations",
		"../../../../migrations",
	} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	if root := os.Getenv("SHIFTBOARD_ROOT"); root != "" {
		return filepath.Join(root, "migrations")
	}
	return ""
}

// loadMigrations reads every .surql file except seed.surql in name order
func loadMigrations() ([]string, error) {
	migrationOnce.Do(func() {
		dir := migrationDir()
		if dir == "" {
			migrationErr = fmt.Errorf("could not find migrations directory")
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			migrationErr = fmt.Errorf("reading migrations dir: %w", err)
			return
		}

		var files []string
		for _, e := range entries {
			name := e.Name()
			if strings.HasSuffix(name, ".surql") && name != "seed.surql" {
				files = append(files, name)
			}
		}
		sort.Strings(files)

		for _, name := range files {
			content, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				migrationErr = fmt.Errorf("reading %s: %w", name, err)
				return
			}
			migrations = append(migrations, string(content))
		}
	})

	return migrations, migrationErr
}

// New connects to the test server, creates a fresh namespace and applies the
// migrations. The test is skipped when no server is reachable. The namespace
// is removed when the test finishes.
func New(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("TEST_DB_SKIP") != "" {
		t.Skip("testdb: TEST_DB_SKIP is set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Skipf("testdb: SurrealDB not reachable at %s: %v", cfg.Endpoint(), err)
	}

	tdb := &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
	t.Cleanup(tdb.Close)

	migs, err := loadMigrations()
	if err != nil {
		t.Fatalf("testdb: failed to load migrations: %v", err)
	}
	for i, mig := range migs {
		if err := db.Execute(ctx, mig, nil); err != nil {
			t.Fatalf("testdb: migration %d failed: %v", i+1, err)
		}
	}

	return tdb
}

// Close removes the namespace and closes the connection. It is safe to call
// more than once.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Reset deletes every row from every table while keeping the schema
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := tdb.DB.Query(ctx, "INFO FOR DB", nil)
	if err != nil {
		t.Fatalf("testdb: failed to get db info: %v", err)
	}
	if len(results) == 0 {
		return
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return
	}
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		return
	}
	tables, ok := result["tables"].(map[string]interface{})
	if !ok {
		return
	}
	for table := range tables {
		if err := tdb.DB.Execute(ctx, fmt.Sprintf("DELETE FROM %s", table), nil); err != nil {
			t.Logf("testdb: failed to clear table %s: %v", table, err)
		}
	}
}

// Ctx returns a context bounded by the test's lifetime
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec runs query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery runs query and returns its results, failing the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// Shared is one TestDB reused across subtests
type Shared struct {
	*TestDB
}

// NewShared creates a TestDB meant to be reset between subtests
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest clears all tables and rebinds the TestDB to the subtest
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
