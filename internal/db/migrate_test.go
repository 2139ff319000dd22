package db

import (
	"testing"
	"testing/fstest"
)

func TestMigrator_Load_EmbeddedFiles(t *testing.T) {
	m := NewMigrator(nil)

	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("Expected at least 2 migrations, got %d", len(migrations))
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Errorf("Migrations not sorted: %d before %d", migrations[i-1].Version, migrations[i].Version)
		}
	}
	if migrations[0].Version != 1 {
		t.Errorf("Expected first migration version 1, got %d", migrations[0].Version)
	}
}

func TestMigrator_Load_SkipsUnnumberedFiles(t *testing.T) {
	m := &Migrator{files: fstest.MapFS{
		"migrations/002_second.sql": {Data: []byte("SELECT 2;")},
		"migrations/001_first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/readme.sql":     {Data: []byte("-- no version")},
		"migrations/notes.txt":      {Data: []byte("ignored")},
	}}

	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("Expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Name != "001_first.sql" || migrations[1].Name != "002_second.sql" {
		t.Errorf("Unexpected order: %s, %s", migrations[0].Name, migrations[1].Name)
	}
	if migrations[1].SQL != "SELECT 2;" {
		t.Errorf("Expected SQL 'SELECT 2;', got %q", migrations[1].SQL)
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "hospital"}

	want := "host=db port=5432 user=u password=p dbname=hospital sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("Expected DSN %q, got %q", want, got)
	}
}
