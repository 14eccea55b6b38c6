// Package dbtest opens a migrated PostgreSQL database for repository tests.
// Tests skip unless CAESAR_TEST_DATABASE_URL names a disposable database.
package dbtest

import (
	"database/sql"
	"os"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/caesar/internal/migrations"
)

// EnvURL names the postgres:// URL of the test database.
const EnvURL = "CAESAR_TEST_DATABASE_URL"

// Open migrates the test database and returns a connection closed at test cleanup.
// Packages share the database, so tests must key their rows with ID.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set", EnvURL)
	}

	if err := migrations.Up(url); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

var seq atomic.Int64

// ID returns a workflow or subject id not used by any earlier test run.
func ID() int64 {
	return time.Now().UnixMicro()*100 + seq.Add(1)%100
}
