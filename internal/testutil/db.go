package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/kbhavake/dentalgpt/internal/config"
	"github.com/kbhavake/dentalgpt/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST and
// applies migrations; tests are skipped when it is unset. The database needs
// the pgvector extension available.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "dentalgpt",
		Password: "dentalgpt_pass",
		DBName:   "dentalgpt_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
