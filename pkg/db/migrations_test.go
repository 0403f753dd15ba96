package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "slate.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})
	return db
}

func TestInitializeAppliesEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := Initialize(db); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	for _, table := range []string{"records", "saved_searches"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestApplyPendingIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db)

	if err := m.ApplyPending(); err != nil {
		t.Fatalf("first ApplyPending: %v", err)
	}
	if err := m.ApplyPending(); err != nil {
		t.Fatalf("second ApplyPending: %v", err)
	}

	status, err := m.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status.Pending) != 0 {
		t.Errorf("expected no pending migrations, got %d", len(status.Pending))
	}
	if len(status.Applied) == 0 {
		t.Error("expected at least one applied migration")
	}
	for _, m := range status.Applied {
		if m.AppliedAt == nil {
			t.Errorf("migration %d missing applied timestamp", m.Version)
		}
	}
}

func TestMigratorFromDir(t *testing.T) {
	db := openTestDB(t)

	dir := t.TempDir()
	files := map[string]string{
		"002_add_notes.sql": "CREATE TABLE notes (id TEXT PRIMARY KEY);",
		"001_base.sql":      "CREATE TABLE base (id TEXT PRIMARY KEY);",
		"README.txt":        "not a migration",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMigratorFromDir(db, dir)
	available, err := m.Available()
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(available))
	}
	if available[0].Version != 1 || available[1].Version != 2 {
		t.Errorf("migrations not sorted by version: %+v", available)
	}

	if err := m.ApplyPending(); err != nil {
		t.Fatalf("ApplyPending: %v", err)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE name='notes'").Scan(&name); err != nil {
		t.Errorf("expected notes table from directory migration: %v", err)
	}
}
