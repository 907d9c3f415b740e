// Package testsupport opens real SQLite stores in temp directories for tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/hann12-34/discovr-ingest/app/database"
)

// MustOpenDB opens a migrated database for tests and registers cleanup.
func MustOpenDB(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "discovr.db"))
	if err != nil {
		t.Fatalf("database.NewConnection: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("database.RunMigrations: %v", err)
	}

	return db
}
