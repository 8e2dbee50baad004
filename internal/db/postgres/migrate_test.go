package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedMigrationsOrdered(t *testing.T) {
	migrations, err := LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) < 5 {
		t.Fatalf("got %d migrations", len(migrations))
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Name, m.Version, i+1)
		}
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %s is empty", m.Name)
		}
	}
	if !strings.Contains(migrations[0].SQL, "email              TEXT        NOT NULL UNIQUE") {
		t.Error("users.email must be unique (users_email_key)")
	}
}

func TestLoadMigrationsSortsAndSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_b.sql": {Data: []byte("SELECT 2")},
		"m/002_a.sql": {Data: []byte("SELECT 1")},
		"m/README.md": {Data: []byte("docs")},
	}
	got, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) != 2 || got[0].Version != 2 || got[1].Version != 10 {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no version":  {"m/init.sql": {Data: []byte("x")}},
		"not numeric": {"m/abc_init.sql": {Data: []byte("x")}},
		"duplicate": {
			"m/001_a.sql": {Data: []byte("x")},
			"m/1_b.sql":   {Data: []byte("y")},
		},
	}
	for name, fsys := range cases {
		if _, err := loadMigrations(fsys, "m"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
