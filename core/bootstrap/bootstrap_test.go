package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/partybot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunStopsOnConnectError(t *testing.T) {
	boom := errors.New("boom")
	migrated := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect:    func(coreconfig.DatabaseConfig) (*sqlx.DB, error) { return nil, boom },
		Migrate:    func(coreconfig.DatabaseConfig) error { migrated = true; return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if migrated {
		t.Error("migrations ran after a failed connect")
	}
}

func TestRunPassesDatabaseConfig(t *testing.T) {
	cfg := &coreconfig.Config{Database: coreconfig.DatabaseConfig{Driver: coreconfig.DriverSQLite, Path: t.TempDir() + "/party.db"}}
	var seen coreconfig.DatabaseConfig
	res, err := Run(Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Migrate: func(db coreconfig.DatabaseConfig) error {
			seen = db
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer res.DB.Close()
	if seen.Path != cfg.Database.Path {
		t.Errorf("migrate path = %q, want %q", seen.Path, cfg.Database.Path)
	}
}
