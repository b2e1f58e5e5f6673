package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{Telegram: TelegramConfig{Token: "t", AdminID: 42}}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Digest.Cron = "  0 20 * * *  "
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "data/party.db" || cfg.Database.MaxConnections != 1 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Party.Date != time.Now().Format(PartyDateLayout) {
		t.Errorf("party date = %q", cfg.Party.Date)
	}
	if cfg.Party.Place == "" {
		t.Error("party place left empty")
	}
	if cfg.Digest.Cron != "0 20 * * *" {
		t.Errorf("digest cron = %q", cfg.Digest.Cron)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no token", func(c *Config) { c.Telegram.Token = "" }, "token"},
		{"no admin", func(c *Config) { c.Telegram.AdminID = 0 }, "admin_id"},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "push" }, "run_mode"},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = RunModeWebhook }, "webhook.url"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without host", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.host"},
		{"bad exclude", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} }, "exclude_updates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Normalize(&cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestNormalizePostgresDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "Postgres", Host: "db", Name: "party"}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	db := cfg.Database
	if db.Driver != DriverPostgres || db.Port != "5432" || db.SSLMode != "disable" || db.MaxConnections != 5 {
		t.Errorf("database = %+v", db)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "telegram:\n  token: from-file\n  admin_id: 7\nparty:\n  place: Roof\ndigest:\n  cron: \"0 20 * * *\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("PARTY_DATE", "05 March 2026")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 7 || cfg.Party.Place != "Roof" || cfg.Party.Date != "05 March 2026" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Digest.Cron != "0 20 * * *" {
		t.Errorf("digest cron = %q", cfg.Digest.Cron)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	t.Setenv("TELEGRAM_ADMIN_ID", "9")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-only" || cfg.Telegram.AdminID != 9 {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
}
