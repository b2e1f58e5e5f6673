package database

import (
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/partybot/core/config"
	"github.com/m3rciful/partybot/migrations"
)

func TestSQLiteMigrationsCreateSchema(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{
		Driver:         coreconfig.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "nested", "party.db"),
		MaxConnections: 1,
	}

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// A second run is a no-op.
	if err := RunMigrations(cfg); err != nil {
		t.Fatalf("RunMigrations (repeat): %v", err)
	}

	for _, table := range []string{"party_state", "guests", "orders", "sessions"} {
		var n int
		if err := db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestListMigrationFilesPerDriver(t *testing.T) {
	for _, dir := range []string{coreconfig.DriverPostgres, coreconfig.DriverSQLite} {
		files := listMigrationFiles(migrations.FS, dir)
		if len(files) != 2 {
			t.Fatalf("%s: expected 2 up migrations, got %v", dir, files)
		}
		if files[0] != "000001_party.up.sql" || files[1] != "000002_sessions.up.sql" {
			t.Errorf("%s: unexpected order %v", dir, files)
		}
	}
}

func TestCountApplied(t *testing.T) {
	files := []string{"000001_party.up.sql", "000002_sessions.up.sql", "000003_x.up.sql"}
	tests := []struct {
		from, to uint64
		want     int
	}{
		{0, 3, 3},
		{1, 3, 2},
		{3, 3, 0},
		{2, 1, 0},
	}
	for _, tt := range tests {
		if got := countApplied(files, tt.from, tt.to); got != tt.want {
			t.Errorf("countApplied(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMigrateURL(t *testing.T) {
	pg := coreconfig.DatabaseConfig{
		Driver: coreconfig.DriverPostgres, Host: "db", Port: "5432",
		User: "bot", Password: "p@ss", Name: "party", SSLMode: "disable",
	}
	if got, want := migrateURL(pg), "postgres://bot:p%40ss@db:5432/party?sslmode=disable"; got != want {
		t.Errorf("postgres url = %s, want %s", got, want)
	}
	lite := coreconfig.DatabaseConfig{Driver: coreconfig.DriverSQLite, Path: "/tmp/party.db"}
	if got, want := migrateURL(lite), "sqlite:///tmp/party.db"; got != want {
		t.Errorf("sqlite url = %s, want %s", got, want)
	}
}
