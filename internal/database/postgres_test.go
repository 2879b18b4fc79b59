package database

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":      {Data: []byte("CREATE INDEX i ON t (c);")},
		"002_add_column.sql":     {Data: []byte("ALTER TABLE t ADD COLUMN c TEXT;")},
		"001_study_sessions.sql": {Data: []byte("CREATE TABLE t (id TEXT);")},
		"README.md":              {Data: []byte("not a migration")},
	}

	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(got))
	}
	for i, want := range []int{1, 2, 10} {
		if got[i].Version != want {
			t.Fatalf("migration %d has version %d, want %d", i, got[i].Version, want)
		}
	}
	if got[0].SQL != "CREATE TABLE t (id TEXT);" {
		t.Fatalf("unexpected body %q", got[0].SQL)
	}
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{"no prefix", fstest.MapFS{"schema.sql": {}}, "001_description.sql"},
		{"non numeric", fstest.MapFS{"abc_schema.sql": {}}, "invalid version"},
		{"zero", fstest.MapFS{"000_schema.sql": {}}, "invalid version"},
		{"duplicate", fstest.MapFS{"001_a.sql": {}, "1_b.sql": {}}, "share version 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadMigrations(tc.fsys)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []migration{{Version: 1}, {Version: 2}, {Version: 3}}

	got := pendingMigrations(all, map[int]bool{1: true, 3: true})
	if len(got) != 1 || got[0].Version != 2 {
		t.Fatalf("unexpected pending set %+v", got)
	}
	if got := pendingMigrations(all, map[int]bool{1: true, 2: true, 3: true}); len(got) != 0 {
		t.Fatalf("expected nothing pending, got %+v", got)
	}
}

func TestMigrationSource_EmbeddedSchema(t *testing.T) {
	got, err := loadMigrations(MigrationSource(""))
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) == 0 || got[0].Version != 1 || !strings.Contains(got[0].SQL, "study_sessions") {
		t.Fatalf("embedded schema missing study_sessions migration: %+v", got)
	}
}

func TestMigrationSource_Directory(t *testing.T) {
	dir := t.TempDir()
	fsys := MigrationSource(dir)
	if _, err := fs.Stat(fsys, "."); err != nil {
		t.Fatalf("directory source not readable: %v", err)
	}
	got, err := loadMigrations(fsys)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty directory to yield no migrations, got %v, %v", got, err)
	}
}
