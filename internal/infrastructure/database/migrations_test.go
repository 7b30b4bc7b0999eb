package database

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
)

func loadTestMigrations(t *testing.T) []Migration {
	t.Helper()
	migrations, err := LoadMigrations(os.DirFS("testdata"), ".")
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	return migrations
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestLoadMigrations(t *testing.T) {
	migrations := loadTestMigrations(t)

	if len(migrations) != 2 {
		t.Fatalf("LoadMigrations() = %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != "20260101_000000" || migrations[0].Name != "create_fixture" {
		t.Errorf("first migration = %s %s", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].DownSQL == "" {
		t.Error("second migration is missing its down SQL")
	}
}

func TestLoadMigrations_MissingUp(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101_000000_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
	}
	if _, err := LoadMigrations(fsys, "."); err == nil {
		t.Error("LoadMigrations() expected error for a down-only migration")
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()
	migrations := loadTestMigrations(t)

	if err := db.Migrate(ctx, migrations); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "fixture") {
		t.Fatal("table fixture not created")
	}

	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2", len(applied))
	}

	// Running again is a no-op.
	if err := db.Migrate(ctx, migrations); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureStopsAndRollsBack(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	migrations := []Migration{
		{Version: "20260101_000000", Name: "good", UpSQL: "CREATE TABLE good (id INTEGER);"},
		{Version: "20260102_000000", Name: "bad", UpSQL: "CREATE TABLE half (id INTEGER); NOT SQL;"},
		{Version: "20260103_000000", Name: "later", UpSQL: "CREATE TABLE later (id INTEGER);"},
	}
	if err := db.Migrate(ctx, migrations); err == nil {
		t.Fatal("Migrate() expected error")
	}

	if !tableExists(t, db, "good") {
		t.Error("earlier migration should stay applied")
	}
	if tableExists(t, db, "later") {
		t.Error("later migration must not run after a failure")
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()
	migrations := loadTestMigrations(t)

	if err := db.Migrate(ctx, migrations); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Index first, then the table.
	for i := 0; i < 2; i++ {
		if err := db.MigrateDown(ctx, migrations); err != nil {
			t.Fatalf("MigrateDown() #%d error = %v", i+1, err)
		}
	}
	if tableExists(t, db, "fixture") {
		t.Error("table fixture should have been dropped")
	}

	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %d after rollback, want 0", len(applied))
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, migrations); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20260118_120000_tilt_sightings.up.sql", "20260118_120000", true, true},
		{"20260118_120000_tilt_sightings.down.sql", "20260118_120000", false, true},
		{"20260118_120000.up.sql", "20260118_120000", true, true},
		{"readme.md", "", false, false},
		{"20260118_120000_x.sql", "", false, false},
		{"nounderscore.up.sql", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, up, ok := parseMigrationFilename(tt.name)
			if version != tt.wantVersion || up != tt.wantUp || ok != tt.wantOK {
				t.Errorf("parseMigrationFilename(%q) = %q, %v, %v", tt.name, version, up, ok)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20260118_120000_tilt_sightings.up.sql"); got != "tilt_sightings" {
		t.Errorf("extractMigrationName() = %q, want tilt_sightings", got)
	}
	if got := extractMigrationName("short.down.sql"); got != "short" {
		t.Errorf("extractMigrationName() = %q, want short", got)
	}
}
